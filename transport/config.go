package transport

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the broker connection settings for the collector binary's
// downstream sink. It is the one place in this module that legitimately
// reads a persisted config file and environment variables: the core
// pipeline and the dump CLI take none, per the decoder/reorder/correlate
// core's own scope.
type Config struct {
	Sink string // "stomp", "amqp" or "" to disable shoveling

	AmqpURL      *url.URL
	AmqpExchange string
	AmqpToken    string

	StompURL      *url.URL
	StompHost     string
	StompTopic    string
	StompUser     string
	StompPassword string
	StompTLS      bool

	QueueDirectory string
}

// ReadConfig populates c from /etc/xrdmon-collector/config.yaml (or the
// working directory, or $HOME/.xrdmon-collector), with viper's usual
// environment-variable override. A file the caller has already named with
// viper.SetConfigFile takes precedence over those search paths.
func (c *Config) ReadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/xrdmon-collector/")
	viper.AddConfigPath("$HOME/.xrdmon-collector")
	viper.AddConfigPath(".")
	viper.AddConfigPath("config/")
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("sink", "")
	c.Sink = viper.GetString("sink")

	viper.SetDefault("queue_directory", "/tmp/xrdmon-collector-queue")
	c.QueueDirectory = viper.GetString("queue_directory")

	switch c.Sink {
	case "amqp":
		viper.SetDefault("amqp.exchange", "xrdmon")
		viper.SetDefault("amqp.token_location", "/etc/xrdmon-collector/token")
		amqpURL, err := url.Parse(viper.GetString("amqp.url"))
		if err != nil {
			return fmt.Errorf("parsing amqp.url: %w", err)
		}
		c.AmqpURL = amqpURL
		c.AmqpExchange = viper.GetString("amqp.exchange")
		c.AmqpToken = viper.GetString("amqp.token_location")

	case "stomp":
		stompURL, err := url.Parse(viper.GetString("stomp.url"))
		if err != nil {
			return fmt.Errorf("parsing stomp.url: %w", err)
		}
		c.StompURL = stompURL
		c.StompHost = viper.GetString("stomp.host")
		c.StompTopic = viper.GetString("stomp.topic")
		if !strings.HasPrefix(c.StompTopic, "/topic/") {
			c.StompTopic = "/topic/" + c.StompTopic
		}
		c.StompUser = viper.GetString("stomp.user")
		c.StompPassword = viper.GetString("stomp.password")
		c.StompTLS = viper.GetBool("stomp.tls")

	case "":
		// Shoveling disabled; the collector binary only decodes and logs.
	default:
		return fmt.Errorf("unknown sink %q, want \"stomp\", \"amqp\" or \"\"", c.Sink)
	}

	return nil
}
