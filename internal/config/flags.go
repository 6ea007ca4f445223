package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-c/-config json file path with configs
//	-d credentials database DSN
//	-bucket object store bucket name
//	-endpoint object store endpoint (empty for AWS S3)
//	-region object store region
//	-event-bus-url broker URL (e.g. nats://localhost:4222)
//	-sink consumer sink kind ("file" or "http")
//	-output-dir consumer file sink output directory
//	-request-timeout request timeout (e.g., "30s", "1m")
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var jsonConfigPath string
	var credentialsDSN string
	var bucket string
	var endpoint string
	var region string
	var eventBusURL string
	var sink string
	var outputDir string
	var requestTimeout time.Duration

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&credentialsDSN, "d", "", "Credentials database DSN")
	flag.StringVar(&bucket, "bucket", "", "Object store bucket name")
	flag.StringVar(&endpoint, "endpoint", "", "Object store endpoint")
	flag.StringVar(&region, "region", "", "Object store region")
	flag.StringVar(&eventBusURL, "event-bus-url", "", "Event bus URL")
	flag.StringVar(&sink, "sink", "", "Consumer sink kind (file or http)")
	flag.StringVar(&outputDir, "output-dir", "", "Consumer file sink output directory")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")

	flag.Parse()

	return &StructuredConfig{
		ObjectStore: ObjectStore{
			Endpoint: endpoint,
			Bucket:   bucket,
			Region:   region,
		},
		EventBus: EventBus{
			URL: eventBusURL,
		},
		Consumer: Consumer{
			Sink:      sink,
			OutputDir: outputDir,
		},
		Credentials: Credentials{
			DSN: credentialsDSN,
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
