package config

import (
	"crypto/tls"
	"crypto/x509"
	"log"
	"net"
)

// CreatePostgresTLSConfig builds the TLS config for the database pool.
// Returns nil when no CA certificate is configured (plain connection).
func (c *Config) CreatePostgresTLSConfig() *tls.Config {
	if c.DBCACert == "" {
		return nil
	}
	rootCertPool := x509.NewCertPool()
	if ok := rootCertPool.AppendCertsFromPEM([]byte(c.DBCACert)); !ok {
		log.Fatal("failed to parse Postgres CA certificate")
	}
	return &tls.Config{
		RootCAs:    rootCertPool,
		ServerName: c.DBHost,
	}
}

// CreateKafkaTLSConfig builds the TLS config for the firehose producer.
// Returns nil when no CA certificate is configured.
func (c *Config) CreateKafkaTLSConfig() *tls.Config {
	if c.KafkaCACert == "" {
		return nil
	}
	rootCertPool := x509.NewCertPool()
	if ok := rootCertPool.AppendCertsFromPEM([]byte(c.KafkaCACert)); !ok {
		log.Fatal("failed to parse Kafka CA certificate")
	}

	// Extract host without port for TLS ServerName
	var serverName string
	if len(c.KafkaBrokers) > 0 {
		host, _, err := net.SplitHostPort(c.KafkaBrokers[0])
		if err != nil {
			// no port in the broker string, use it as-is
			serverName = c.KafkaBrokers[0]
		} else {
			serverName = host
		}
	}

	return &tls.Config{
		RootCAs:    rootCertPool,
		ServerName: serverName, // must match SAN in certificate
		MinVersion: tls.VersionTLS12,
	}
}
