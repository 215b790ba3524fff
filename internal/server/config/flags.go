package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/pinboard/internal/flagx"
)

// parseFlags overlays config with command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-g string     gRPC health bind address (e.g. ":50051")
//	-d string     database DSN (postgres:// URL or SQLite file)
//	-s string     session signing secret
//	-l duration   session lifetime (e.g. "24h")
//	-w duration   expired session sweep interval
//	-t duration   request timeout
//	-m int        max upload size, bytes
//	-b string     storage backend: local | s3
//	-u string     upload directory for the local backend
//	-bucket, -region, -endpoint, -s3user, -s3password: S3 settings
//
// Only the flags above are parsed; everything else in args is ignored.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{
		"-a", "-g", "-d", "-s", "-l", "-w", "-t", "-m", "-b", "-u",
		"-bucket", "-region", "-endpoint", "-s3user", "-s3password",
	})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session signing secret")
	fs.DurationVar(&config.SessionLifetime, "l", config.SessionLifetime, "session lifetime")
	fs.DurationVar(&config.SessionSweepInterval, "w", config.SessionSweepInterval, "expired session sweep interval")
	fs.DurationVar(&config.RequestTimeout, "t", config.RequestTimeout, "request timeout")
	fs.Int64Var(&config.MaxUploadSize, "m", config.MaxUploadSize, "max upload size in bytes")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend: local | s3")
	fs.StringVar(&config.UploadDir, "u", config.UploadDir, "upload directory (local backend)")
	fs.StringVar(&config.S3Bucket, "bucket", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "endpoint", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3RootUser, "s3user", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "s3password", config.S3RootPassword, "S3 secret key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
