package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "plant", want: KindPlant},
		{in: "Plants", want: KindPlant},
		{in: "fish", want: KindFish},
		{in: "fishes", want: KindFish},
		{in: "coral", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestKind_TableAndViewPage(t *testing.T) {
	assert.Equal(t, "plants", KindPlant.Table())
	assert.Equal(t, "fish", KindFish.Table())
	assert.Equal(t, "PlantView", KindPlant.ViewPage())
	assert.Equal(t, "FishView", KindFish.ViewPage())
	assert.Panics(t, func() { _ = Kind("coral").Table() })
	assert.False(t, Kind("coral").Valid())
}

func TestAssetRef(t *testing.T) {
	assert.True(t, AssetRef{}.Empty())
	assert.False(t, AssetRef{}.Complete())
	assert.True(t, AssetRef{URL: "u", Handle: "h"}.Complete())
	half := AssetRef{URL: "u"}
	assert.False(t, half.Empty())
	assert.False(t, half.Complete())
}

func TestOptional(t *testing.T) {
	v, ok := None[string]().Get()
	assert.False(t, ok)
	assert.Equal(t, "", v)

	v, ok = Some("").Get()
	assert.True(t, ok)
	assert.Equal(t, "", v)

	assert.True(t, SpecimenPatch{}.Empty())
	assert.False(t, SpecimenPatch{Description: Some("leafy")}.Empty())
}

func TestImageFile_Remove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	f := &ImageFile{Path: path}
	require.NoError(t, f.Remove())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, f.Remove(), "second remove is a no-op")

	var nilFile *ImageFile
	require.NoError(t, nilFile.Remove())
}
