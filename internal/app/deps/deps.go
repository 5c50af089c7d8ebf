package deps

import (
	"context"
	"passgate/internal/config"
	dl "passgate/internal/core/domain/logging"
	drl "passgate/internal/core/domain/rate_limiter"
	duow "passgate/internal/core/domain/unit_of_work"
	"passgate/internal/core/domain/user"
	uow "passgate/internal/db/unit_of_work"
	dbuser "passgate/internal/db/user"
	clienttoken "passgate/internal/implementations/client_token"
	"passgate/internal/implementations/email"
	"passgate/internal/implementations/logging"
	passwordhasher "passgate/internal/implementations/password_hasher"
	ratelimiter "passgate/internal/implementations/rate_limiter"
	resettoken "passgate/internal/implementations/reset_token"
	"passgate/internal/rabbitmq"
	resetinstructions "passgate/internal/rabbitmq/publishers/reset_instructions"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/go-redis/redis/v9"
	"github.com/jackc/pgx/v4/pgxpool"
)

type Deps struct {
	Config    *config.Config
	AwsConfig aws.Config
	Logger    dl.Logger

	DB       *pgxpool.Pool
	Redis    *redis.Client
	Rabbitmq *rabbitmq.Connection

	Now func() time.Time

	UnitOfWork     duow.UnitOfWork
	UserRepository user.UserRepository

	RateLimiter drl.RateLimiter

	Capabilities      user.Capabilities
	PasswordHasher    user.PasswordHasher
	ResetTokenizer    user.ResetTokenizer
	ClientTokenIssuer user.ClientTokenIssuer

	// EmailNotifier delivers through SES; Notifier is what the reset
	// flow publishes to and may be the SES notifier or the AMQP queue.
	EmailNotifier *email.Notifier
	Notifier      user.Notifier
}

func InitDeps() (*Deps, func()) {
	deps := &Deps{}

	deps.initConfig()
	deps.initAwsConfig()

	closeLogger := deps.initLogger()
	closePgxPool := deps.initPgxPool()
	closeRedisClient := deps.initRedisClient()
	closeRabbitmqConn := deps.initRabbitmqConnection()

	deps.Now = func() time.Time { return time.Now().UTC() }

	deps.UnitOfWork = uow.NewPgxUnitOfWork(deps.DB)
	deps.UserRepository = dbuser.NewPgxRepository(deps.DB)
	deps.RateLimiter = ratelimiter.NewRedis(deps.Redis, deps.Logger, deps.Now)

	deps.Capabilities = user.Capabilities{
		CaseInsensitiveEmail:     deps.Config.EmailCaseInsensitive,
		MultipleProviders:        deps.Config.MultipleProviders,
		CaseInsensitiveCollation: deps.Config.CaseInsensitiveCollation,
		Confirmable:              deps.Config.Confirmable,
	}
	deps.PasswordHasher = passwordhasher.NewBcrypt(deps.Config.Secret, deps.Config.BcryptHasherCost)
	deps.ResetTokenizer = resettoken.NewHMAC(deps.Config.Secret)
	deps.ClientTokenIssuer = clienttoken.NewIssuer(
		deps.Config.ClientTokenLifespan,
		deps.Config.BcryptHasherCost,
	)

	deps.EmailNotifier = email.NewNotifier(
		deps.AwsConfig,
		deps.Config.AwsEmailSender,
		deps.Config.AwsEmailResetTemplate,
		deps.Config.PasswordEditURL,
	)
	closeNotifier := deps.initNotifier()

	return deps, func() {
		closeFuncs := []func(){
			closeNotifier,
			closeRabbitmqConn,
			closeRedisClient,
			closePgxPool,
			closeLogger,
		}

		var wg sync.WaitGroup
		wg.Add(len(closeFuncs))
		for _, closeFunc := range closeFuncs {
			closeFunc := closeFunc
			go func() {
				closeFunc()
				wg.Done()
			}()
		}

		wg.Wait()
	}
}

func (deps *Deps) initConfig() {
	config, err := config.Load()
	if err != nil {
		panic(err)
	}
	deps.Config = config
}

func (deps *Deps) initAwsConfig() {
	cfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithRegion(deps.Config.AwsRegion),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				deps.Config.AwsAccessKey,
				deps.Config.AwsSecretKey,
				"",
			),
		),
		awsConfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(
				retry.AddWithMaxBackoffDelay(retry.NewStandard(), time.Second*5),
				3,
			)
		}),
	)
	if err != nil {
		panic(err)
	}
	deps.AwsConfig = cfg
}

func (deps *Deps) initLogger() func() {
	logger := logging.NewZapLogger()
	deps.Logger = logger
	return func() { logger.Sync() }
}

func (deps *Deps) initPgxPool() func() {
	db, err := pgxpool.Connect(context.Background(), deps.Config.PostgresqlURL)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to DB.", dl.Entry("err", err))
		panic(err)
	}
	deps.DB = db
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down DB connection.")
		db.Close()
		deps.Logger.Info(context.Background(), "DB connection shut down.")
	}
}

func (deps *Deps) initRedisClient() func() {
	redisOpt, err := redis.ParseURL(deps.Config.RedisURL)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to Redis.", dl.Entry("err", err))
		panic(err)
	}
	redisClient := redis.NewClient(redisOpt)
	deps.Redis = redisClient
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down Redis client.")
		redisClient.Close()
		deps.Logger.Info(context.Background(), "Redis client shut down.")
	}
}

func (deps *Deps) initRabbitmqConnection() func() {
	if deps.Config.MailDelivery != config.MailDeliveryAMQP {
		return func() {}
	}

	rabbitmqConnection, err := rabbitmq.Dial(deps.Config.RabbitmqURL, deps.Logger)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to RabbitMQ.", dl.Entry("err", err))
		panic("could not connect to RabbitMQ")
	}
	deps.Rabbitmq = rabbitmqConnection
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down RabbitMQ connection.")
		rabbitmqConnection.Close()
		deps.Logger.Info(context.Background(), "RabbitMQ connection shut down.")
	}
}

func (deps *Deps) initNotifier() func() {
	if deps.Config.MailDelivery != config.MailDeliveryAMQP {
		deps.Notifier = deps.EmailNotifier
		return func() {}
	}

	rabbitmqChannel, err := deps.Rabbitmq.Channel()
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not create RabbitMQ channel.", dl.Entry("err", err))
		panic(err)
	}
	if _, err = rabbitmqChannel.QueueDeclare(
		deps.Config.RabbitmqResetQueue, true, false, false, false, nil,
	); err != nil {
		deps.Logger.Error(context.Background(), "Could not create RabbitMQ queue.", dl.Entry("err", err))
		panic(err)
	}

	deps.Notifier = resetinstructions.NewRabbitMQ(
		deps.Logger,
		rabbitmqChannel,
		deps.Config.RabbitmqResetExchange,
		deps.Config.RabbitmqResetQueue,
	)
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down reset instructions publisher.")
		rabbitmqChannel.Close()
		deps.Logger.Info(context.Background(), "Reset instructions publisher shut down.")
	}
}
