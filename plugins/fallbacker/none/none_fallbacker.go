package none

import (
	"github.com/otus6-project/otus6/internal/config"
	otus "github.com/otus6-project/otus6/internal/otus/api"
	reporter "github.com/otus6-project/otus6/plugins/reporter/api"
)

const (
	Name     = "none-fallbacker"
	ShowName = "Nonw Fallbacker"
)

type Fallbacker struct {
	config.CommonFields
}

func (f *Fallbacker) Name() string {
	return Name
}

func (f *Fallbacker) ShowName() string {
	return ShowName
}

func (f *Fallbacker) DefaultConfig() string {
	return ``
}

func (f *Fallbacker) Fallback(data *otus.BatchePacket, reporter reporter.ReporterFunc) bool {
	return true
}
