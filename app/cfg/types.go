package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	EntitiesDir       string
	SaveRoot          string
	Port              string
	WorkerCount       int
	DownloadWorkers   int
	SchedulerInterval int
	APIAccessKey      string

	// Download behavior
	SetFileModifiedDate     bool
	SaveUndownloadedContent bool

	// External services
	UserAgent     string
	ImgurClientID string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
