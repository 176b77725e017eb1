package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// fakeRedis is an in-memory Commands implementation for the cache tests.
// It tracks string keys, sorted sets and the TTL last set per key.
type fakeRedis struct {
	strings map[string]string
	zsets   map[string]map[string]float64
	ttls    map[string]time.Duration

	failNext error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings: make(map[string]string),
		zsets:   make(map[string]map[string]float64),
		ttls:    make(map[string]time.Duration),
	}
}

func (f *fakeRedis) fail() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if err := f.fail(); err != nil {
		return redis.NewStringResult("", err)
	}
	value, ok := f.strings[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedis) SetEX(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if err := f.fail(); err != nil {
		return redis.NewStatusResult("", err)
	}
	switch v := value.(type) {
	case string:
		f.strings[key] = v
	case []byte:
		f.strings[key] = string(v)
	default:
		f.strings[key] = fmt.Sprint(v)
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if err := f.fail(); err != nil {
		return redis.NewIntResult(0, err)
	}
	var removed int64
	for _, key := range keys {
		if _, ok := f.strings[key]; ok {
			delete(f.strings, key)
			removed++
		}
		if _, ok := f.zsets[key]; ok {
			delete(f.zsets, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeRedis) ZRemRangeByScore(_ context.Context, key, min, max string) *redis.IntCmd {
	if err := f.fail(); err != nil {
		return redis.NewIntResult(0, err)
	}
	set := f.zsets[key]
	lo := parseScore(min, false)
	hi := parseScore(max, true)
	var removed int64
	for member, score := range set {
		if score >= lo && score <= hi {
			delete(set, member)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeRedis) ZAdd(_ context.Context, key string, members ...*redis.Z) *redis.IntCmd {
	if err := f.fail(); err != nil {
		return redis.NewIntResult(0, err)
	}
	set, ok := f.zsets[key]
	if !ok {
		set = make(map[string]float64)
		f.zsets[key] = set
	}
	var added int64
	for _, m := range members {
		member := fmt.Sprint(m.Member)
		if _, exists := set[member]; !exists {
			added++
		}
		set[member] = m.Score
	}
	return redis.NewIntResult(added, nil)
}

func (f *fakeRedis) ZCard(_ context.Context, key string) *redis.IntCmd {
	if err := f.fail(); err != nil {
		return redis.NewIntResult(0, err)
	}
	return redis.NewIntResult(int64(len(f.zsets[key])), nil)
}

func (f *fakeRedis) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	if err := f.fail(); err != nil {
		return redis.NewBoolResult(false, err)
	}
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func parseScore(s string, isMax bool) float64 {
	switch s {
	case "-inf":
		return -1e308
	case "+inf":
		return 1e308
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if isMax {
			return 1e308
		}
		return -1e308
	}
	return v
}

var _ Commands = (*fakeRedis)(nil)
