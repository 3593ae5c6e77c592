package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/talentrelay/internal/config"
	"github.com/xiaot623/talentrelay/internal/repository"
	"github.com/xiaot623/talentrelay/policy"
)

type Service struct {
	store        store.Store
	policyEngine *policy.Engine
	config       *config.Config
	now          func() time.Time
	newToken     func() string
}

func New(store store.Store, policyEngine *policy.Engine, cfg *config.Config) *Service {
	return &Service{
		store:        store,
		policyEngine: policyEngine,
		config:       cfg,
		now:          func() time.Time { return time.Now().UTC() },
		newToken:     uuid.NewString,
	}
}
