package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "clinicq:patients:display_name:uuid:42"

func TestGetOrSet_MissThenHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)
	ctx := context.Background()

	mock.ExpectGet(testKey).RedisNil()
	mock.ExpectSet(testKey, []byte(`"Jane D."`), time.Hour).SetVal("OK")
	mock.ExpectGet(testKey).SetVal(`"Jane D."`)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return "Jane D.", nil
	}

	var name string
	require.NoError(t, svc.GetOrSet(ctx, testKey, time.Hour, fetch, &name))
	assert.Equal(t, "Jane D.", name)

	name = ""
	require.NoError(t, svc.GetOrSet(ctx, testKey, time.Hour, fetch, &name))
	assert.Equal(t, "Jane D.", name)

	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrSet_WriteFailureIsNotFatal(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectGet(testKey).SetErr(errors.New("i/o timeout"))
	mock.ExpectSet(testKey, []byte(`"Jane D."`), time.Hour).SetErr(errors.New("i/o timeout"))

	var name string
	err := svc.GetOrSet(context.Background(), testKey, time.Hour, func() (interface{}, error) {
		return "Jane D.", nil
	}, &name)
	require.NoError(t, err)
	assert.Equal(t, "Jane D.", name)
}

func TestGetOrSet_FetcherError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectGet(testKey).RedisNil()

	var name string
	err := svc.GetOrSet(context.Background(), testKey, time.Hour, func() (interface{}, error) {
		return nil, errors.New("patient not found")
	}, &name)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_Miss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet(testKey).RedisNil()

	var name string
	err := NewService(client).Get(context.Background(), testKey, &name)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestDeleteAndPing(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewService(client)

	mock.ExpectDel(testKey).SetVal(1)
	mock.ExpectPing().SetVal("PONG")

	require.NoError(t, svc.Delete(context.Background(), testKey))
	require.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
