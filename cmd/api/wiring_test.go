package main

import (
	"context"
	"testing"

	"github.com/UnendingLoop/WebPUploader/internal/appconfig"
	"github.com/UnendingLoop/WebPUploader/internal/codec"
	"github.com/UnendingLoop/WebPUploader/internal/notify"
	"github.com/stretchr/testify/require"
)

func TestNewEncoder(t *testing.T) {
	enc, err := newEncoder("webp")
	require.NoError(t, err)
	require.Equal(t, ".webp", enc.Ext())

	enc, err = newEncoder("jpeg")
	require.NoError(t, err)
	require.IsType(t, codec.JPEGEncoder{}, enc)
	require.Equal(t, ".jpg", enc.Ext())

	enc, err = newEncoder("")
	require.NoError(t, err)
	require.Equal(t, ".webp", enc.Ext())

	_, err = newEncoder("avif")
	require.Error(t, err)
}

func TestBuildSinks_NoBrokers(t *testing.T) {
	hub := notify.NewHub()
	defer hub.Close()

	sinks, closers := buildSinks(context.Background(), appconfig.AppConfig{}, hub)
	require.Len(t, sinks, 2)
	require.Empty(t, closers)
}

func TestBuildSinks_Redis(t *testing.T) {
	hub := notify.NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sinks, closers := buildSinks(ctx, appconfig.AppConfig{RedisAddr: "127.0.0.1:1"}, hub)
	require.Len(t, sinks, 3)
	require.IsType(t, &notify.Async{}, sinks[2])
	require.Len(t, closers, 2)
	require.Equal(t, "Notification dispatcher", closers[0].name)
	for _, c := range closers {
		require.NoError(t, c.close())
	}
}
