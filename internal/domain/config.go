package domain

// Config is the node information handlers and services need at runtime.
type Config struct {
	FQDN       string `yaml:"fqdn"`
	PrivateKey string `yaml:"privatekey"`
	Layer      string `yaml:"layer"`
	CSID       string `yaml:"csid"`
}
