package api

import (
	"github.com/otus6-project/otus6/internal/otus/module/api"
)

type Processor interface {
	SetCapture(m *api.Module)
	SetSender(m *api.Module)
}
