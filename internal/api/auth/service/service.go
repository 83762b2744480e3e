package authService

import (
	"TravelExpense/internal/api/auth"
	authRepository "TravelExpense/internal/api/auth/repository"
	"TravelExpense/internal/entity"
	"TravelExpense/pkg/bcrypt"
	"TravelExpense/pkg/microsoft"
	"TravelExpense/pkg/redis"
	"TravelExpense/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type AuthService interface {
	User() UserDomain
	Auth() AuthDomain
}

type UserDomain interface {
	RegisterUser(ctx context.Context, req auth.RegisterRequest) (entity.User, error)
	// CreateAdmin is only reachable from the seed command.
	CreateAdmin(ctx context.Context, name string, email string, password string) (entity.User, error)
	GetByID(ctx context.Context, id string) (entity.User, error)
	ListUsers(ctx context.Context, actor entity.Actor) ([]entity.User, error)
}

type AuthDomain interface {
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error)
	Logout(ctx context.Context, actor entity.Actor) error
	MicrosoftLoginURL() (string, error)
	LoginMicrosoft(ctx context.Context, state string, code string) (auth.LoginResponse, error)
}

type authService struct {
	userDomain UserDomain
	authDomain AuthDomain
}

func (a *authService) User() UserDomain {
	return a.userDomain
}

func (a *authService) Auth() AuthDomain {
	return a.authDomain
}

type userDomainImpl struct {
	log         *logrus.Logger
	repo        authRepository.Repository
	bcryptUtils bcrypt.IBcrypt
	utils       utils.IUtils
}

type authDomainImpl struct {
	log               *logrus.Logger
	repo              authRepository.Repository
	microsoftProvider microsoft.ItfMicrosoft
	redisServer       redis.IRedis
	bcryptUtils       bcrypt.IBcrypt
	oauthState        string
}

// New wires both domains. microsoftProvider and redisServer may be nil, which
// disables SSO and logout respectively.
func New(log *logrus.Logger,
	authRepo authRepository.Repository,
	microsoftProvider microsoft.ItfMicrosoft,
	redisServer redis.IRedis,
	bcryptUtils bcrypt.IBcrypt,
	utils utils.IUtils,
	oauthState string,
) AuthService {
	return &authService{
		userDomain: &userDomainImpl{log: log, repo: authRepo, bcryptUtils: bcryptUtils, utils: utils},
		authDomain: &authDomainImpl{
			log:               log,
			repo:              authRepo,
			microsoftProvider: microsoftProvider,
			redisServer:       redisServer,
			bcryptUtils:       bcryptUtils,
			oauthState:        oauthState,
		},
	}
}
