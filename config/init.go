package config

import (
	"database/sql"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath    = "/config.json"
	configPathEnv        = "FLEETBENCH_CONFIG"
	defaultFaultTimeout  = 30
	defaultTickMs        = 1000
	defaultFleetProvider = FleetProviderASG
	defaultNodeLabel     = "fleetbench.io/fleet"
)

const (
	FleetProviderASG = "asg"
	FleetProviderK8s = "k8s"
)

type HttpConfig struct {
	Proxy string `json:"proxy" mapstructure:"proxy"`
}

type ObjectStorage struct {
	Provider     string `json:"provider" mapstructure:"provider"`
	Url          string `json:"url" mapstructure:"url"`
	User         string `json:"user" mapstructure:"user"`
	Password     string `json:"password" mapstructure:"password"`
	Bucket       string `json:"bucket" mapstructure:"bucket"`
	Region       string `json:"region" mapstructure:"region"`
	UseSSL       bool   `json:"use_ssl" mapstructure:"use_ssl"`
	RequireProxy bool   `json:"require_proxy" mapstructure:"require_proxy"`
}

type LogFormat struct {
	Json     bool   `json:"json" mapstructure:"json"`
	JsonPath string `json:"path" mapstructure:"path"`
}

// FleetConfig decides where fleet topology is read from when injecting faults.
type FleetConfig struct {
	Provider  string `json:"provider" mapstructure:"provider"`
	InCluster bool   `json:"in_cluster" mapstructure:"in_cluster"`
	NodeLabel string `json:"node_label" mapstructure:"node_label"`
}

type AWSConfig struct {
	Region        string `json:"region" mapstructure:"region"`
	AccountID     string `json:"account_id" mapstructure:"account_id"`
	FISTargetName string `json:"fis_target_name" mapstructure:"fis_target_name"`
}

type FaultConfig struct {
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type ControllerConfig struct {
	TickMs int `json:"tick_ms" mapstructure:"tick_ms"`
}

type FleetbenchConfig struct {
	DBConf        *MySQLConfig      `json:"db" mapstructure:"db"`
	HttpConfig    *HttpConfig       `json:"http_config" mapstructure:"http_config"`
	ObjectStorage *ObjectStorage    `json:"object_storage" mapstructure:"object_storage"`
	LogFormat     *LogFormat        `json:"log_format" mapstructure:"log_format"`
	Fleet         *FleetConfig      `json:"fleet" mapstructure:"fleet"`
	AWS           *AWSConfig        `json:"aws" mapstructure:"aws"`
	Fault         *FaultConfig      `json:"fault" mapstructure:"fault"`
	Controller    *ControllerConfig `json:"controller" mapstructure:"controller"`
	Economics     *EconomicsConfig  `json:"economics" mapstructure:"economics"`

	// below are configs generated from above values
	DevMode         bool         `json:"-" mapstructure:"-"`
	Context         string       `json:"-" mapstructure:"-"`
	HTTPClient      *http.Client `json:"-" mapstructure:"-"`
	HTTPProxyClient *http.Client `json:"-" mapstructure:"-"`
	DBC             *sql.DB      `json:"-" mapstructure:"-"`
	DBEndpoint      string       `json:"-" mapstructure:"-"`
}

func loadContext() string {
	return os.Getenv("env")
}

func (sc *FleetbenchConfig) makeHTTPClients() error {
	sc.HTTPClient = &http.Client{}
	if sc.HttpConfig.Proxy == "" {
		return nil
	}
	proxyUrl, err := url.Parse(sc.HttpConfig.Proxy)
	if err != nil {
		return err
	}
	rt := &http.Transport{
		Proxy: http.ProxyURL(proxyUrl),
	}
	sc.HTTPProxyClient = &http.Client{Transport: rt}
	return nil
}

func (sc *FleetbenchConfig) applyDefaults() {
	if sc.HttpConfig == nil {
		sc.HttpConfig = &HttpConfig{}
	}
	if sc.LogFormat == nil {
		sc.LogFormat = &LogFormat{}
	}
	if sc.Fleet == nil {
		sc.Fleet = &FleetConfig{}
	}
	if sc.Fleet.Provider == "" {
		sc.Fleet.Provider = defaultFleetProvider
	}
	if sc.Fleet.NodeLabel == "" {
		sc.Fleet.NodeLabel = defaultNodeLabel
	}
	if sc.AWS == nil {
		sc.AWS = &AWSConfig{}
	}
	if sc.Fault == nil {
		sc.Fault = &FaultConfig{}
	}
	if sc.Fault.TimeoutSeconds <= 0 {
		sc.Fault.TimeoutSeconds = defaultFaultTimeout
	}
	if sc.Controller == nil {
		sc.Controller = &ControllerConfig{}
	}
	if sc.Controller.TickMs <= 0 {
		sc.Controller.TickMs = defaultTickMs
	}
	if sc.Economics == nil {
		sc.Economics = &EconomicsConfig{}
	}
	sc.Economics.applyDefaults()
}

func applyJsonLogging() {
	log.SetFormatter(&log.JSONFormatter{})
	err := os.MkdirAll(SC.LogFormat.JsonPath, os.ModePerm)
	if err != nil {
		log.Fatal(err)
	}
	file, err := os.OpenFile(path.Join(SC.LogFormat.JsonPath, "fleetbench.json"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to log to file. %v", err)
	}
	log.SetOutput(file)
}

func setupLogging() {
	log.SetOutput(os.Stdout)
	log.SetReportCaller(true)
	if SC.LogFormat.Json {
		applyJsonLogging()
	}
}

// LoadConfig reads the JSON config at path. Any key can be overridden from the
// environment, e.g. FLEETBENCH_FAULT_TIMEOUT_SECONDS.
func LoadConfig(configPath string) (*FleetbenchConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("FLEETBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	sc := new(FleetbenchConfig)
	if err := v.Unmarshal(sc); err != nil {
		return nil, err
	}
	sc.applyDefaults()
	sc.Context = loadContext()
	sc.DevMode = sc.Context == "local"
	if err := sc.makeHTTPClients(); err != nil {
		return nil, err
	}
	return sc, nil
}

func configPath() string {
	if p := os.Getenv(configPathEnv); p != "" {
		return p
	}
	return defaultConfigPath
}

var SC *FleetbenchConfig

// Init loads the process wide config, sets up logging and opens the database.
func Init() {
	sc, err := LoadConfig(configPath())
	if err != nil {
		log.Fatalf("Cannot load config %v", err)
	}
	SC = sc
	setupLogging()
	if sc.DBConf != nil {
		sc.DBC = createMySQLClient(sc.DBConf)
		sc.DBEndpoint = sc.DBConf.Endpoint
	}
}
