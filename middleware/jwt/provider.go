package jwt

import (
	"github.com/tech-arch1tect/recipemanager/services/jwt"
	"github.com/tech-arch1tect/recipemanager/services/logging"
	"github.com/tech-arch1tect/recipemanager/services/user"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(ProvideGate),
)

func ProvideGate(tokens *jwt.Service, users *user.Store, logger *logging.Service) *Gate {
	return NewGate(tokens, users, logger.Named("gate"))
}
