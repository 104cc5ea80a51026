package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/promo-engine/internal/promotion"
)

func TestDemoIndependent(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-mode", "independent", "-rules", ""}, &out, &bytes.Buffer{}))

	text := out.String()
	require.Contains(t, text, "== independent ==")
	require.Contains(t, text, "540.00")
	require.Contains(t, text, "-391.10")
	require.Contains(t, text, "148.90")
}

func TestDemoAllModesAsJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-json", "-rules", ""}, &out, &bytes.Buffer{}))

	var summaries []promotion.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summaries))
	require.Len(t, summaries, 3)
	require.Equal(t, promotion.Modes(), []promotion.Mode{summaries[0].Mode, summaries[1].Mode, summaries[2].Mode})
	for _, s := range summaries {
		require.Equal(t, 540.0, s.Original)
		require.GreaterOrEqual(t, s.Final, 0.0)
	}
}

func TestCartFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	body := `{"items":[{"name":"tv","price":250,"qty":1,"tags":["promo"]}],
		"rules":[{"type":"threshold_discount","threshold":200,"rate":0.9}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-cart", path, "-mode", "lock", "-rules", ""}, &out, &bytes.Buffer{}))
	require.Contains(t, out.String(), "== lock ==")
	require.Contains(t, out.String(), "225.00")
}

func TestRejectsUnknownMode(t *testing.T) {
	err := run(context.Background(), []string{"-mode", "greedy", "-rules", ""}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestDemoRulesBuild(t *testing.T) {
	req := demoRequest()
	require.Len(t, req.Items, 6)
	require.Len(t, req.Rules, 10)
	require.True(t, req.User.IsVIP())
}
