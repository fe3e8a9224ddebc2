package main

import (
	_ "embed" // Support for go:embed resources
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

//go:embed resources/defaultConfig.ini
var defaultConfig []byte

// Config is the top-level settings structure, populated from the embedded
// defaults and an optional user INI file layered on top.
type Config struct {
	Def     string
	IniFile *ini.File
	Storage struct {
		Dir string `ini:"Dir"`
	} `ini:"Storage"`
	Server struct {
		Name    string `ini:"Name"`
		Version string `ini:"Version"`
	} `ini:"Server"`
	Export struct {
		MergeKey string `ini:"MergeKey"`
		Format   string `ini:"Format"`
	} `ini:"Export"`
	Templates struct {
		LuaFile string `ini:"LuaFile"`
	} `ini:"Templates"`
}

// Loads and parses the INI file into a Config struct.
func loadConfig(def string) (*Config, error) {
	options := ini.LoadOptions{
		IgnoreInlineComment:     false,
		SkipUnrecognizableLines: true,
	}

	var iniFile *ini.File
	var err error
	if fp := FileExist(def); len(fp) == 0 {
		iniFile, err = ini.LoadSources(options, defaultConfig)
	} else {
		iniFile, err = ini.LoadSources(options, defaultConfig, def)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %v", err)
	}

	c := &Config{Def: def, IniFile: iniFile}
	if err := iniFile.Section("Storage").MapTo(&c.Storage); err != nil {
		return nil, fmt.Errorf("failed to map [Storage]: %v", err)
	}
	if err := iniFile.Section("Server").MapTo(&c.Server); err != nil {
		return nil, fmt.Errorf("failed to map [Server]: %v", err)
	}
	if err := iniFile.Section("Export").MapTo(&c.Export); err != nil {
		return nil, fmt.Errorf("failed to map [Export]: %v", err)
	}
	if err := iniFile.Section("Templates").MapTo(&c.Templates); err != nil {
		return nil, fmt.Errorf("failed to map [Templates]: %v", err)
	}
	c.normalize()
	return c, nil
}

// Normalize values
func (c *Config) normalize() {
	if strings.TrimSpace(c.Storage.Dir) == "" {
		c.Storage.Dir = "storage"
	}
	if c.Server.Name == "" {
		c.Server.Name = "spine2d-animation-server"
	}
	if c.Server.Version == "" {
		c.Server.Version = Version
	}
	switch c.Export.MergeKey {
	case MergeKeyType, MergeKeyID:
	default:
		if c.Export.MergeKey != "" {
			fmt.Printf("Warning: unknown merge key %q, using %q\n", c.Export.MergeKey, MergeKeyType)
		}
		c.Export.MergeKey = MergeKeyType
	}
	switch c.Export.Format {
	case "json", "gltf":
	default:
		c.Export.Format = "json"
	}
}
