// Package config provides configuration for the crawldb tool: crawl
// defaults, the optional .crawldb YAML file, and the cookie credential
// bundle required to reach the authenticated catalog pages.
package config
