package hermes

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectRenderCompleted(t *testing.T) {
	assert.Equal(t, "kscore.render.weighted.completed", SubjectRenderCompleted("weighted"))
	assert.Equal(t, "kscore.render.raw.completed", SubjectRenderCompleted("raw"))
}

func TestStreamMaxAgeParses(t *testing.T) {
	d, err := time.ParseDuration(StreamMaxAge)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)
}

func TestWeightsUpdatedEventJSON(t *testing.T) {
	ev := WeightsUpdatedEvent{P: 0.25, R: 1, Source: "api", Timestamp: time.Unix(0, 0).UTC()}
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":0.25,"r":1,"source":"api","timestamp":"1970-01-01T00:00:00Z"}`, string(b))
}

func TestSubjectsInsideStream(t *testing.T) {
	prefix := strings.TrimSuffix(SubjectAll, ">")
	assert.True(t, strings.HasPrefix(SubjectWeightsUpdated, prefix))
	assert.True(t, strings.HasPrefix(SubjectRenderCompleted("raw"), prefix))
}

func TestForeignWeightUpdates(t *testing.T) {
	var got []WeightsUpdatedEvent
	handler := ForeignWeightUpdates("node-a", func(evt WeightsUpdatedEvent) {
		got = append(got, evt)
	})

	own, err := json.Marshal(WeightsUpdatedEvent{P: 0.1, R: 0.2, Source: "render", Origin: "node-a"})
	require.NoError(t, err)
	other, err := json.Marshal(WeightsUpdatedEvent{P: 0.3, R: 0.4, Source: "render", Origin: "node-b"})
	require.NoError(t, err)
	cli, err := json.Marshal(WeightsUpdatedEvent{P: 0.5, R: 0.6, Source: "cli"})
	require.NoError(t, err)

	handler(SubjectWeightsUpdated, own)
	handler(SubjectWeightsUpdated, []byte("not json"))
	handler(SubjectWeightsUpdated, other)
	handler(SubjectWeightsUpdated, cli)

	require.Len(t, got, 2)
	assert.Equal(t, "node-b", got[0].Origin)
	assert.Equal(t, "cli", got[1].Source)
}
