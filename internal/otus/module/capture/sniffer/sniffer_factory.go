package sniffer

import "github.com/otus6-project/otus6/internal/otus/module/capture/codec"

func NewSniffer(options *Options) *Sniffer {
	return &Sniffer{
		options: options,
	}
}

func (s *Sniffer) SetDecoder(d *codec.Decoder) {
	s.decoder = d
}
