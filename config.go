package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogFile      string `yaml:"log"`
	PDFDir       string `yaml:"pdf_dir"`
	IndexDir     string `yaml:"index_dir"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	TopK         int    `yaml:"top_k"`
	RequestSize  int    `yaml:"request_size"`
	ServerAddr   string `yaml:"server_addr"`
	OpenAI       *struct {
		Model  string `yaml:"model"`
		ApiKey string `yaml:"api_key"`
	} `yaml:"open_ai"`
	Gemini *struct {
		Model  string `yaml:"model"`
		ApiKey string `yaml:"api_key"`
	} `yaml:"gemini"`
}

func defaultConfig() *Config {
	return &Config{
		LogFile:      "pdfrag.log",
		PDFDir:       "./pdf_library",
		IndexDir:     "./rag_db",
		ChunkSize:    500,
		ChunkOverlap: 50,
		TopK:         5,
		RequestSize:  32,
		ServerAddr:   "localhost:8080",
	}
}

// readConfig loads the file at cfgPath over the defaults. A missing file is
// an error only when mustExist is set; the stock path is read with mustExist
// false.
func readConfig(cfgPath string, mustExist bool) (*Config, error) {
	cfg := defaultConfig()

	cfgFile, err := os.Open(cfgPath)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return cfg, nil
		}

		return nil, fmt.Errorf("unable to open config file: %w", err)
	}
	defer cfgFile.Close()

	dec := yaml.NewDecoder(cfgFile)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ChunkSize < 1 {
		return errors.New("chunk_size must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return errors.New("chunk_overlap must be non-negative and smaller than chunk_size")
	}
	if c.TopK < 1 {
		return errors.New("top_k must be positive")
	}

	return nil
}
