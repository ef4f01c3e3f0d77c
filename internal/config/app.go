package config

type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
	Store  StoreConfig
	Notify NotifyConfig
	Import ImportConfig
}

func LoadApp() (AppConfig, error) {
	if err := LoadDotEnv(); err != nil {
		return AppConfig{}, err
	}
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	storeCfg, err := LoadStore()
	if err != nil {
		return AppConfig{}, err
	}
	notifyCfg, err := LoadNotify()
	if err != nil {
		return AppConfig{}, err
	}
	importCfg, err := LoadImport()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Log:    logCfg,
		Store:  storeCfg,
		Notify: notifyCfg,
		Import: importCfg,
	}, nil
}
