package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Bot: BotConfig{
			Name:    "bot",
			AppType: "multitenant",
		},
		Ingress: IngressConfig{
			Host:         "0.0.0.0",
			Port:         3978,
			MessagesPath: "/api/messages",
			WebSocket:    false,
		},
		Journal: JournalConfig{
			Enabled: false,
			DBPath:  "~/.teamsbot/journal.db",
		},
	}
}
