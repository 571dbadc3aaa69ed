package log

type KafkaAppenderOpt struct {
	Brokers   []string `yaml:"brokers"`
	Topic     string   `yaml:"topic"`
	Partition int      `yaml:"partition,omitempty"`
	// 可选的认证配置
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	TLS      bool   `yaml:"tls,omitempty"`
}

func (m *MultiWriter) AddKafkaAppender(options KafkaAppenderOpt) *MultiWriter {
	// 目前不创建 Kafka producer：options 被忽略，m 原样返回，
	// 不会新增任何 writer
	return m
}
