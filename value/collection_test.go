package value_test

import (
	"testing"

	"github.com/ClusterCockpit/cc-perfcounters/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionMergeByKey(t *testing.T) {
	a := value.New()
	a["val"] = value.NewAccumulative(1)

	b := value.New()
	b["val"] = value.NewAccumulative(2)
	b["other"] = value.NewAccumulative(9)

	require.NoError(t, a.MergeWith(b))

	n, ok := a["val"].Number()
	require.True(t, ok)
	assert.Equal(t, 3.0, n)

	n, ok = a["other"].Number()
	require.True(t, ok)
	assert.Equal(t, 9.0, n)
}

func TestCollectionMergeIncompatibleFails(t *testing.T) {
	a := value.New()
	a["val"] = value.NewAccumulative(1)

	b := value.New()
	b["val"] = value.NewAverage(1, 1)

	err := a.MergeWith(b)
	require.Error(t, err)
	var merr *value.MergeError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "val", merr.Key)
}

func TestCollectionNumbersSurfacesNilForEmpty(t *testing.T) {
	c := value.New()
	c["present"] = value.NewAccumulative(4)
	c["absent"] = &value.Accumulative{Empty: true}

	nums := c.Numbers()
	assert.Equal(t, 4.0, nums["present"])
	assert.Nil(t, nums["absent"])
}

func TestFourWayMergeSums(t *testing.T) {
	merged := value.New()
	perNode := map[string]float64{"n1": 1, "n2": 2, "n3": 3, "n4": 4}
	var got []float64
	for _, v := range perNode {
		got = append(got, v)
		c := value.New()
		c["val"] = value.NewAccumulative(v)
		require.NoError(t, merged.MergeWith(c))
	}

	n, ok := merged["val"].Number()
	require.True(t, ok)
	assert.Equal(t, 10.0, n)
}
