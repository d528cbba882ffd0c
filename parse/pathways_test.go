package parse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetway.dev/meetway/model"
	"meetway.dev/meetway/storage"
)

func TestParsePathways(t *testing.T) {
	for _, tc := range []struct {
		name     string
		content  string
		stops    map[string]bool
		err      bool
		pathways []model.Pathway
	}{
		{
			"minimal",
			`
pathway_id,from_stop_id,to_stop_id,traversal_time
p1,s1,s2,45`,
			map[string]bool{"s1": true, "s2": true},
			false,
			[]model.Pathway{{FromStopID: "s1", ToStopID: "s2", TraversalTime: 45}},
		},

		{
			"empty pathway_id",
			`
pathway_id,from_stop_id,to_stop_id,traversal_time
,s1,s2,45`,
			map[string]bool{"s1": true, "s2": true},
			true,
			nil,
		},

		{
			"repeated pathway_id",
			`
pathway_id,from_stop_id,to_stop_id,traversal_time
p1,s1,s2,45
p1,s2,s1,45`,
			map[string]bool{"s1": true, "s2": true},
			true,
			nil,
		},

		{
			"unknown from_stop_id",
			`
pathway_id,from_stop_id,to_stop_id,traversal_time
p1,s3,s2,45`,
			map[string]bool{"s1": true, "s2": true},
			true,
			nil,
		},

		{
			"unknown to_stop_id",
			`
pathway_id,from_stop_id,to_stop_id,traversal_time
p1,s1,s3,45`,
			map[string]bool{"s1": true, "s2": true},
			true,
			nil,
		},

		{
			"negative traversal_time",
			`
pathway_id,from_stop_id,to_stop_id,traversal_time
p1,s1,s2,-1`,
			map[string]bool{"s1": true, "s2": true},
			true,
			nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := storage.NewMemoryStorage()
			writer, err := s.GetWriter("test")
			require.NoError(t, err)

			err = ParsePathways(writer, bytes.NewBufferString(tc.content), tc.stops)
			if tc.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)

			reader, err := s.GetReader("test")
			require.NoError(t, err)
			pathways, err := reader.Pathways()
			require.NoError(t, err)
			assert.Equal(t, tc.pathways, pathways)
		})
	}
}
