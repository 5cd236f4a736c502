package cmd

import (
	"time"

	"github.com/foomo/gistkv/pkg/gist"
	"github.com/foomo/gistkv/pkg/history"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "console", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

// ------------------------------------------------------------------------------------------------
// ~ Store
// ------------------------------------------------------------------------------------------------

func tokenFlag(v *viper.Viper) string {
	return v.GetString("token")
}

func addTokenFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("token", "", "GitHub access token with the gist scope")
	_ = v.BindPFlag("token", flags.Lookup("token"))
	_ = v.BindEnv("token", "GISTKV_TOKEN")
}

func gistIDFlag(v *viper.Viper) string {
	return v.GetString("gist_id")
}

func addGistIDFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("gist-id", "", "Id of the gist, a new secret gist is created if empty")
	_ = v.BindPFlag("gist_id", flags.Lookup("gist-id"))
	_ = v.BindEnv("gist_id", "GISTKV_GIST_ID")
}

func filenameFlag(v *viper.Viper) string {
	return v.GetString("filename")
}

func addFilenameFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("filename", "", "Name of the file within the gist")
	_ = v.BindPFlag("filename", flags.Lookup("filename"))
	_ = v.BindEnv("filename", "GISTKV_FILENAME")
}

func formatFlag(v *viper.Viper) string {
	return v.GetString("format")
}

func addFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("format", "object", "Serialization of the file (object, entries)")
	_ = v.BindPFlag("format", flags.Lookup("format"))
	_ = v.BindEnv("format", "GISTKV_FORMAT")
}

func baseURLFlag(v *viper.Viper) string {
	return v.GetString("base_url")
}

func addBaseURLFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-url", gist.DefaultBaseURL, "Base url of the gist API")
	_ = v.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = v.BindEnv("base_url", "GISTKV_BASE_URL")
}

func timeoutFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("timeout")
}

func addTimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("timeout", 30*time.Second, "Timeout for requests to the gist API")
	_ = v.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = v.BindEnv("timeout", "GISTKV_TIMEOUT")
}

func rateLimitFlag(v *viper.Viper) float64 {
	return v.GetFloat64("rate.limit")
}

func addRateLimitFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Float64("rate-limit", 0, "Max requests per second to the gist API, 0 disables the limit")
	_ = v.BindPFlag("rate.limit", flags.Lookup("rate-limit"))
	_ = v.BindEnv("rate.limit", "GISTKV_RATE_LIMIT")
}

func rateBurstFlag(v *viper.Viper) int {
	return v.GetInt("rate.burst")
}

func addRateBurstFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("rate-burst", 1, "Burst of requests allowed by the rate limit")
	_ = v.BindPFlag("rate.burst", flags.Lookup("rate-burst"))
	_ = v.BindEnv("rate.burst", "GISTKV_RATE_BURST")
}

// ------------------------------------------------------------------------------------------------
// ~ History
// ------------------------------------------------------------------------------------------------

func historyEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("history.enabled")
}

func addHistoryEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("history", false, "Mirror every snapshot into the history storage")
	_ = v.BindPFlag("history.enabled", flags.Lookup("history"))
	_ = v.BindEnv("history.enabled", "GISTKV_HISTORY")
}

func historyDirFlag(v *viper.Viper) string {
	return v.GetString("history.dir")
}

func addHistoryDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("history-dir", "/var/lib/gistkv", "Where to put the snapshot history")
	_ = v.BindPFlag("history.dir", flags.Lookup("history-dir"))
	_ = v.BindEnv("history.dir", "GISTKV_HISTORY_DIR")
}

func historyLimitFlag(v *viper.Viper) int {
	return v.GetInt("history.limit")
}

func addHistoryLimitFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("history-limit", 2, "Number of history records to keep")
	_ = v.BindPFlag("history.limit", flags.Lookup("history-limit"))
	_ = v.BindEnv("history.limit", "GISTKV_HISTORY_LIMIT")
}

func storageTypeFlag(v *viper.Viper) string {
	return v.GetString("storage.type")
}

func addStorageTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-type", history.StorageTypeFilesystem, "History storage backend (filesystem, blob)")
	_ = v.BindPFlag("storage.type", flags.Lookup("storage-type"))
	_ = v.BindEnv("storage.type", "GISTKV_STORAGE_TYPE")
}

func storageBlobBucketFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.bucket")
}

func addStorageBlobBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-bucket", "", "Blob bucket url (gs://, s3://, azblob://, mem://, file://)")
	_ = v.BindPFlag("storage.blob.bucket", flags.Lookup("storage-blob-bucket"))
	_ = v.BindEnv("storage.blob.bucket", "GISTKV_STORAGE_BLOB_BUCKET")
}

func storageBlobPrefixFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.prefix")
}

func addStorageBlobPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-prefix", "", "Key prefix within the blob bucket")
	_ = v.BindPFlag("storage.blob.prefix", flags.Lookup("storage-blob-prefix"))
	_ = v.BindEnv("storage.blob.prefix", "GISTKV_STORAGE_BLOB_PREFIX")
}

// ------------------------------------------------------------------------------------------------
// ~ Service
// ------------------------------------------------------------------------------------------------

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":8080", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "GISTKV_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/gistkv", "Base path to export the webserver on")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "GISTKV_BASE_PATH")
}

func pollFlag(v *viper.Viper) bool {
	return v.GetBool("poll.enabled")
}

func addPollFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("poll", false, "If true, the gist file is pulled periodically")
	_ = v.BindPFlag("poll.enabled", flags.Lookup("poll"))
	_ = v.BindEnv("poll.enabled", "GISTKV_POLL")
}

func pollIntervalFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("poll.interval")
}

func addPollIntervalFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("poll-interval", time.Minute, "Specifies the poll interval")
	_ = v.BindPFlag("poll.interval", flags.Lookup("poll-interval"))
	_ = v.BindEnv("poll.interval", "GISTKV_POLL_INTERVAL")
}

func gracefulPeriodFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("graceful_period")
}

func addGracefulPeriodFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("graceful-period", 0, "Graceful period before shutdown")
	_ = v.BindPFlag("graceful_period", flags.Lookup("graceful-period"))
	_ = v.BindEnv("graceful_period", "GISTKV_GRACEFUL_PERIOD")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}
