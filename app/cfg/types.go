package cfg

type Cfg struct {
	// Pipeline configuration
	SourcesFile  string
	OutputPath   string
	DBPath       string
	HistoryDays  int
	FetchTimeout int

	// HTTP server configuration
	Serve        bool
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
