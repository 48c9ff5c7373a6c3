/*
Package config loads engine settings from YAML, JSON or TOML files.

# Overview

A settings file names the locale used to read numbers and dates, parser
limits, and the variable-set store:

	locale: de-DE
	decimal_separator: ","
	date_layouts: ["02.01.2006"]
	timezone: Europe/Berlin
	strict: true
	max_depth: 16
	log_level: debug
	metrics: true
	store:
	  driver: sqlite
	  path: ./vars.db
	  busy_timeout: 2s

Keys that are absent keep the values from Defaults.

# Loading

	s, err := config.FromFile("rulexpr.yaml")
	if err != nil {
	    return err
	}
	conv, err := s.Converter()

FromFile validates what it loads. Settings built in code should be checked
with Validate.

# Raw values

Values gives typed access to arbitrary keys of a decoded document. Every
accessor takes a default returned when the key is missing or mistyped:

	v, _ := config.ValuesFromFile("rulexpr.toml")
	depth := v.Int("max_depth", 32)
	path := v.Sub("store").String("path", "")
*/
package config
