// Package config loads toyreact project configuration.
//
// The configuration lives in toyreact.json at the project root, or in
// toyreact.yaml when there is no JSON file. Missing values take defaults.
//
//	{
//	  "app": "todo",
//	  "dev": {
//	    "host": "localhost",
//	    "port": 3000,
//	    "hotReload": true
//	  },
//	  "log": {"level": "debug", "format": "json"},
//	  "metrics": {"enabled": true, "path": "/metrics"},
//	  "tracing": {"enabled": false},
//	  "publish": {
//	    "bucket": "snapshots",
//	    "prefix": "previews",
//	    "region": "eu-west-1"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	fmt.Println("Preview:", cfg.DevURL())
package config
