package queue

import (
	"context"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"ticketgate/waitroom-server/pkg/infra"
	"ticketgate/waitroom-server/pkg/store"
)

const (
	// Alphanumeric only, so ids survive the ticket token format.
	codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	queueCodeLength = 12
	authCodeLength  = 16
)

// QueueConfig is the tenant-facing subset of queue fields used on
// setup and update.
type QueueConfig struct {
	Name                        string `json:"name"`
	Capacity                    int    `json:"capacity"`
	MaxActiveUsers              int    `json:"maxActiveUsers"`
	ActivationWindowSeconds     int    `json:"activationWindowSeconds"`
	PermissionExpirationSeconds int    `json:"permissionExpirationSeconds"`
	CallbackURL                 string `json:"callbackURL"`
}

func (c *QueueConfig) Validate() error {
	switch {
	case c.Name == "":
		return validationError("'name' can't be empty.")
	case c.Capacity < 100:
		return validationError("'capacity' must be at least 100.")
	case c.MaxActiveUsers < 1:
		return validationError("'maxActiveUsers' must be greater than 0.")
	case c.ActivationWindowSeconds < 1:
		return validationError("'activationWindowSeconds' must be greater than 0.")
	case c.PermissionExpirationSeconds < 1:
		return validationError("'permissionExpirationSeconds' must be greater than 0.")
	case len(c.CallbackURL) > 255:
		return validationError("'callbackURL' too long.")
	}
	return nil
}

// QueueSetup is returned to the operator who created a queue.
type QueueSetup struct {
	QueueId        string `json:"queueId"`
	QueueURL       string `json:"queueUrl"`
	CallbackFormat string `json:"callbackFormat"`
}

// Repo owns queue records and the all-queues index. Tickets and the
// ready/active sets belong to the lifecycle engine and the scheduler.
type Repo struct {
	store  *store.Store
	logger *zap.SugaredLogger
}

func ProvideRepo(store *store.Store, loggerFactory *infra.LoggerFactory) *Repo {
	return &Repo{
		store:  store,
		logger: loggerFactory.Create("QueueRepo").Sugar(),
	}
}

func (r *Repo) Setup(ctx context.Context, config *QueueConfig) (*QueueSetup, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	code, err := gonanoid.Generate(codeAlphabet, queueCodeLength)
	if err != nil {
		return nil, err
	}
	queueId := store.QueueKey(code)

	if err := r.store.HashSet(ctx, queueId, map[string]interface{}{
		"id":                          queueId,
		"name":                        config.Name,
		"capacity":                    config.Capacity,
		"maxActiveUsers":              config.MaxActiveUsers,
		"activationWindowSeconds":     config.ActivationWindowSeconds,
		"permissionExpirationSeconds": config.PermissionExpirationSeconds,
		"callbackURL":                 config.CallbackURL,
		"head":                        0,
		"tail":                        0,
	}); err != nil {
		return nil, err
	}

	if err := r.store.SetAdd(ctx, store.AllQueuesKey, queueId); err != nil {
		return nil, err
	}

	r.logger.Infof("set up queue[%v] maxActiveUsers[%v]", queueId, config.MaxActiveUsers)
	return &QueueSetup{
		QueueId:        queueId,
		QueueURL:       "/q/" + code,
		CallbackFormat: config.CallbackURL + "?ticket=xxxxxx",
	}, nil
}

func (r *Repo) Find(ctx context.Context, queueId string) (*Queue, error) {
	queue := &Queue{}
	found, err := r.store.HashGetAllScan(ctx, queueId, queue)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrQueueNotExist
	}
	return queue, nil
}

func (r *Repo) Status(ctx context.Context, queueId string) (*QueueStatus, error) {
	queue, err := r.Find(ctx, queueId)
	if err != nil {
		return nil, err
	}
	return &QueueStatus{
		QueueId:        queue.Id,
		Head:           queue.Head,
		Tail:           queue.Tail,
		MaxActiveUsers: queue.MaxActiveUsers,
	}, nil
}

// UpdateConfig overwrites the tenant-tunable fields. head and tail are
// runtime counters and are never written here.
func (r *Repo) UpdateConfig(ctx context.Context, queueId string, config *QueueConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if _, err := r.Find(ctx, queueId); err != nil {
		return err
	}

	return r.store.HashSet(ctx, queueId, map[string]interface{}{
		"name":                        config.Name,
		"capacity":                    config.Capacity,
		"maxActiveUsers":              config.MaxActiveUsers,
		"activationWindowSeconds":     config.ActivationWindowSeconds,
		"permissionExpirationSeconds": config.PermissionExpirationSeconds,
		"callbackURL":                 config.CallbackURL,
	})
}

// Close deletes the queue hash and drops it from the index. Its
// ready/active sets and ticket hashes become orphans; the next sweep
// reaps the sets when it finds the hash gone.
func (r *Repo) Close(ctx context.Context, queueId string) error {
	if _, err := r.Find(ctx, queueId); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, queueId); err != nil {
		return err
	}
	if err := r.store.SetRemove(ctx, store.AllQueuesKey, queueId); err != nil {
		return err
	}

	r.logger.Infof("closed queue[%v]", queueId)
	return nil
}

func (r *Repo) AllQueues(ctx context.Context) ([]string, error) {
	return r.store.SetMembers(ctx, store.AllQueuesKey)
}
