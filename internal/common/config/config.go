package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	// FrontendBaseURL is where browser-facing redirects land (login page,
	// payment result pages). The callback handlers never render HTML themselves.
	FrontendBaseURL string `env:"FRONTEND_BASE_URL" envDefault:"http://localhost:3000"`

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Django struct {
		BaseURL    string `env:"DJANGO_API_BASE,required"`
		TimeoutSec int    `env:"DJANGO_API_TIMEOUT_SEC" envDefault:"15"`
	}

	OIDC struct {
		AuthorizeURL string   `env:"OIDC_AUTHORIZE_URL,required"`
		ClientID     string   `env:"OIDC_CLIENT_ID,required"`
		RedirectURI  string   `env:"OIDC_REDIRECT_URI,required"`
		Scopes       []string `env:"OIDC_SCOPES" envSeparator:"," envDefault:"openid,profile,email"`
	}

	Session struct {
		JWTSecret          string `env:"SESSION_JWT_SECRET,required"`
		RefreshBufferSec   int    `env:"SESSION_REFRESH_BUFFER_SEC" envDefault:"300"`
		MonitorIntervalSec int    `env:"SESSION_MONITOR_INTERVAL_SEC" envDefault:"60"`
	}

	Chain struct {
		RPCURL             string `env:"ETH_RPC_URL,required"`
		ChainID            int64  `env:"CHAIN_ID" envDefault:"1"`
		FactoryAddress     string `env:"FACTORY_ADDRESS,required"`
		PresaleAddress     string `env:"PRESALE_ADDRESS,required"`
		OperatorPrivateKey string `env:"OPERATOR_PRIVATE_KEY,required"`
		ReceiptTimeoutSec  int    `env:"RECEIPT_TIMEOUT_SEC" envDefault:"120"`
	}

	Payment struct {
		GatewayStartURL string `env:"PAYMENT_GATEWAY_START_URL,required"`
		CallbackURL     string `env:"PAYMENT_CALLBACK_URL,required"`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Игнорируем ошибку, если .env файл не найден
		// В production окружении переменные могут быть установлены напрямую
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
