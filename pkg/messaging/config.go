package messaging

import (
	"fmt"
	"strings"
	"time"
)

type RabbitMQConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	VHost             string        `yaml:"vhost"`
	Exchange          string        `yaml:"exchange"`
	RetryCount        int           `yaml:"retry_count"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
	// MaxDeliveries bounds consumer redeliveries before a message is dead-lettered.
	MaxDeliveries int `yaml:"max_deliveries"`
}

func DefaultRabbitMQConfig() RabbitMQConfig {
	return RabbitMQConfig{
		Host:              "localhost",
		Port:              5672,
		Username:          "guest",
		Password:          "guest",
		VHost:             "/",
		Exchange:          "storefront.events",
		RetryCount:        3,
		RetryDelay:        time.Second * 5,
		ConnectionTimeout: time.Second * 30,
		MaxDeliveries:     3,
	}
}

func (c *RabbitMQConfig) ConnectionURL() string {
	vhost := c.VHost
	if vhost != "/" && !strings.HasPrefix(vhost, "/") {
		vhost = "/" + vhost
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		c.Username, c.Password, c.Host, c.Port, vhost)
}
