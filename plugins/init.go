// Package plugins registers all built-in plugins.
package plugins

import (
	"github.com/otus6-project/otus6/pkg/plugin"
	"github.com/otus6-project/otus6/plugins/capture/afpacket"
	"github.com/otus6-project/otus6/plugins/parser/sip"
	"github.com/otus6-project/otus6/plugins/reporter/console"
	"github.com/otus6-project/otus6/plugins/reporter/kafka"
)

func init() {
	// Register capture plugins
	plugin.RegisterCapturer("afpacket", afpacket.NewAFPacketCapturer)

	// Register parser plugins
	plugin.RegisterParser("sip", sip.NewSIPParser)

	// Register reporter plugins
	plugin.RegisterReporter("console", console.NewConsoleReporter)
	plugin.RegisterReporter("kafka", kafka.NewKafkaReporter)

	// More plugins will be registered here as they are implemented
	// processor plugins
}
