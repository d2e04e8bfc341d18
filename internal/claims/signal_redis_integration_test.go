//go:build integration

package claims_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"idv-gateway/internal/claims"
	"idv-gateway/pkg/testutil/containers"
)

type RedisSignalerSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	signaler *claims.RedisSignaler
}

func TestRedisSignalerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSignalerSuite))
}

func (s *RedisSignalerSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.signaler = claims.NewRedisSignaler(s.redis.Client)
}

func (s *RedisSignalerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisSignalerSuite) TestSignalThenChangedSince() {
	ctx := context.Background()
	at := time.Now().UTC()

	s.Require().NoError(s.signaler.SignalRefresh(ctx, "u1", at))

	changed, err := s.signaler.ChangedSince(ctx, "u1", at.Add(-time.Minute))
	s.Require().NoError(err)
	s.True(changed, "a token issued before the signal must refresh")

	changed, err = s.signaler.ChangedSince(ctx, "u1", at.Add(time.Minute))
	s.Require().NoError(err)
	s.False(changed, "a token issued after the signal is already fresh")
}

func (s *RedisSignalerSuite) TestNoMarkerMeansNoChange() {
	changed, err := s.signaler.ChangedSince(context.Background(), "unknown", time.Now())
	s.Require().NoError(err)
	s.False(changed)
}

func (s *RedisSignalerSuite) TestLatestSignalWins() {
	ctx := context.Background()
	first := time.Now().UTC().Add(-time.Hour)
	second := time.Now().UTC()

	s.Require().NoError(s.signaler.SignalRefresh(ctx, "u1", first))
	s.Require().NoError(s.signaler.SignalRefresh(ctx, "u1", second))

	changed, err := s.signaler.ChangedSince(ctx, "u1", first.Add(time.Minute))
	s.Require().NoError(err)
	s.True(changed)
}
