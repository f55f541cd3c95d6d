package util

import (
	_ "embed"
	"fmt"
	"gopkg.in/yaml.v3"
	"log"
	"os"
	"strconv"
)

const Name = "reverie"
const ConfigFileName = "config.yaml"

//go:embed config_default.yaml
var embeddedConfig []byte

type Conf struct {
	ServerURL string `yaml:"serverUrl"`
	Host      string
	SshPort   int  `yaml:"sshPort"`
	HttpPort  int  `yaml:"httpPort"`
	MockPort  int  `yaml:"mockPort"`
	WithSsh   bool `yaml:"withSsh"`
	WithRss   bool `yaml:"withRss"`
	WithMock  bool `yaml:"withMock"`
	PageSize  int  `yaml:"pageSize"`
}

type AppConfig struct {
	Conf Conf
}

func ReadConf() (*AppConfig, error) {

	c := &AppConfig{}

	// Try to resolve config file path (local first, then user dir)
	configPath := ResolveFilePath(ConfigFileName)

	var buf []byte
	var err error

	// Try to read from resolved path
	buf, err = os.ReadFile(configPath)
	if err != nil {
		// If file doesn't exist, use embedded config and create user config file
		log.Printf("Config file not found at %s, using embedded defaults", configPath)
		buf = embeddedConfig

		// Try to write default config to user config directory
		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := configDir + "/" + ConfigFileName
			writeErr := os.WriteFile(userConfigPath, embeddedConfig, 0644)
			if writeErr != nil {
				log.Printf("Warning: could not write default config to %s: %v", userConfigPath, writeErr)
			} else {
				log.Printf("Created default config file at %s", userConfigPath)
			}
		}
	}

	err = yaml.Unmarshal(buf, c)
	if err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	envServerURL := os.Getenv("REVERIE_SERVERURL")
	envHost := os.Getenv("REVERIE_HOST")
	envSshPort := os.Getenv("REVERIE_SSHPORT")
	envHttpPort := os.Getenv("REVERIE_HTTPPORT")
	envMockPort := os.Getenv("REVERIE_MOCKPORT")
	envWithSsh := os.Getenv("REVERIE_WITH_SSH")
	envWithRss := os.Getenv("REVERIE_WITH_RSS")
	envWithMock := os.Getenv("REVERIE_WITH_MOCK")

	if envServerURL != "" {
		c.Conf.ServerURL = envServerURL
	}

	if envHost != "" {
		c.Conf.Host = envHost
	}

	if envSshPort != "" {
		v, err := strconv.Atoi(envSshPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.SshPort = v
	}

	if envHttpPort != "" {
		v, err := strconv.Atoi(envHttpPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.HttpPort = v
	}

	if envMockPort != "" {
		v, err := strconv.Atoi(envMockPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.MockPort = v
	}

	if envWithSsh == "true" {
		c.Conf.WithSsh = true
	}

	if envWithRss == "true" {
		c.Conf.WithRss = true
	}

	if envWithMock == "true" {
		c.Conf.WithMock = true
	}

	if c.Conf.PageSize <= 0 {
		c.Conf.PageSize = 10
	}

	return c, nil
}
