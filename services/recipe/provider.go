package recipe

import (
	"github.com/tech-arch1tect/recipemanager/services/user"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewStore),
	fx.Provide(NewService),
	fx.Invoke(registerUserDeleteHook),
)

func registerUserDeleteHook(users *user.Store) {
	users.OnDelete(DeleteOwnedBy)
}
