package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		MasterKey      string `json:"master_key"`
		MaxUploadBytes int64  `json:"max_upload_bytes"`
	} `json:"app,omitempty"`

	ObjectStore struct {
		Endpoint  string `json:"endpoint"`
		Bucket    string `json:"bucket"`
		AccessKey string `json:"access_key"`
		Secret    string `json:"secret"`
		Region    string `json:"region"`
	} `json:"object_store,omitempty"`

	EventBus struct {
		URL string `json:"url"`
	} `json:"event_bus,omitempty"`

	Session struct {
		IdleSeconds  int64 `json:"idle_seconds"`
		SweepSeconds int64 `json:"sweep_seconds"`
	} `json:"session,omitempty"`

	Ingest struct {
		VerifyOuter *bool `json:"verify_outer"`
	} `json:"ingest,omitempty"`

	Consumer struct {
		Durable   string `json:"durable"`
		Workers   int    `json:"workers"`
		Sink      string `json:"sink"`
		OutputDir string `json:"output_dir"`
		Endpoint  string `json:"endpoint"`
	} `json:"consumer,omitempty"`

	Credentials struct {
		Backend string `json:"backend"`
		DSN     string `json:"dsn"`
		Static  string `json:"static"`
	} `json:"credentials,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	// VerifyOuter defaults to true elsewhere; only an explicit JSON value
	// should participate in the merge.
	verifyOuter := false
	if jsonCfg.Ingest.VerifyOuter != nil {
		verifyOuter = *jsonCfg.Ingest.VerifyOuter
	}

	cfg := &StructuredConfig{
		App: App{
			MasterKey:      jsonCfg.App.MasterKey,
			MaxUploadBytes: jsonCfg.App.MaxUploadBytes,
		},
		ObjectStore: ObjectStore{
			Endpoint:  jsonCfg.ObjectStore.Endpoint,
			Bucket:    jsonCfg.ObjectStore.Bucket,
			AccessKey: jsonCfg.ObjectStore.AccessKey,
			Secret:    jsonCfg.ObjectStore.Secret,
			Region:    jsonCfg.ObjectStore.Region,
		},
		EventBus: EventBus{
			URL: jsonCfg.EventBus.URL,
		},
		Session: Session{
			IdleSeconds:  jsonCfg.Session.IdleSeconds,
			SweepSeconds: jsonCfg.Session.SweepSeconds,
		},
		Ingest: Ingest{
			VerifyOuter: verifyOuter,
		},
		Consumer: Consumer{
			Durable:   jsonCfg.Consumer.Durable,
			Workers:   jsonCfg.Consumer.Workers,
			Sink:      jsonCfg.Consumer.Sink,
			OutputDir: jsonCfg.Consumer.OutputDir,
			Endpoint:  jsonCfg.Consumer.Endpoint,
		},
		Credentials: Credentials{
			Backend:    jsonCfg.Credentials.Backend,
			DSN:        jsonCfg.Credentials.DSN,
			StaticJSON: jsonCfg.Credentials.Static,
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
