package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novapharm/novapharm/jobs"
	_ "github.com/novapharm/novapharm/testing"
)

func TestTriggerRejectsUnknownJob(t *testing.T) {
	cli, err := NewJobsCLI("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })

	_, err = cli.Trigger(context.Background(), "nope")
	require.ErrorContains(t, err, "unsupported job")
}

func TestTriggerRequiresClient(t *testing.T) {
	var cli *JobsCLI

	_, err := cli.Trigger(context.Background(), jobs.TaskInventoryExpiryScan)
	require.Error(t, err)
}

func TestInspectQueueRequiresInspector(t *testing.T) {
	cli := &JobsCLI{}

	_, err := cli.InspectQueue(context.Background())
	require.Error(t, err)
}
