package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyPath_JSON(t *testing.T) {
	var arr FamilyPath
	require.NoError(t, json.Unmarshal([]byte(`["Potentiometer","Resistors"]`), &arr))
	assert.Equal(t, []string{"Potentiometer", "Resistors"}, arr.Labels)
	assert.False(t, arr.IsText())

	var str FamilyPath
	require.NoError(t, json.Unmarshal([]byte(`"Resistors/Potentiometer"`), &str))
	assert.True(t, str.IsText())
	assert.Equal(t, "Resistors/Potentiometer", str.Text)

	var null FamilyPath
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))
	assert.True(t, null.IsZero())

	var bad FamilyPath
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))

	out, err := json.Marshal(str)
	require.NoError(t, err)
	assert.JSONEq(t, `"Resistors/Potentiometer"`, string(out))

	out, err = json.Marshal(arr)
	require.NoError(t, err)
	assert.JSONEq(t, `["Potentiometer","Resistors"]`, string(out))
}

func TestFamilyPath_SerializedRoundTrip(t *testing.T) {
	paths := []FamilyPath{
		PathOf("Film", "Fixed", "Resistors"),
		PathOf("A > B", "<tag>"),
		TextPath("Capacitors > Ceramic"),
		{},
	}
	for _, p := range paths {
		got := ParseFamilyPath(p.Serialized())
		assert.Equal(t, p.IsZero(), got.IsZero(), p.Serialized())
		assert.Equal(t, p.Labels, got.Labels)
		assert.Equal(t, p.Text, got.Text)
	}
	assert.Equal(t, `["A > B","<tag>"]`, PathOf("A > B", "<tag>").Serialized())
}

func TestFamilyPath_Scan(t *testing.T) {
	var p FamilyPath
	require.NoError(t, p.Scan([]byte(`["Leaf","Root"]`)))
	assert.Equal(t, []string{"Leaf", "Root"}, p.Labels)

	require.NoError(t, p.Scan("Root/Leaf"))
	assert.Equal(t, "Root/Leaf", p.Text)

	require.NoError(t, p.Scan(nil))
	assert.True(t, p.IsZero())

	assert.Error(t, p.Scan(42))
}

func TestFamilyPath_RootToLeafAndTopLevel(t *testing.T) {
	tests := []struct {
		name string
		path FamilyPath
		want []string
	}{
		{"labels", PathOf("Trimmer", "Potentiometer", "Resistors"), []string{"Resistors", "Potentiometer", "Trimmer"}},
		{"slash text", TextPath("Resistors/Potentiometer"), []string{"Resistors", "Potentiometer"}},
		{"spaced chevron text", TextPath("Capacitors > Ceramic > MLCC"), []string{"Capacitors", "Ceramic", "MLCC"}},
		{"mixed separators", TextPath("Diodes / Zener>SMD"), []string{"Diodes", "Zener", "SMD"}},
		{"blank labels dropped", PathOf("", "Leaf", " ", "Root"), []string{"Root", "Leaf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.path.RootToLeaf())
			assert.Equal(t, tt.want[0], tt.path.TopLevel())
		})
	}
}

func TestNormalizeFamilyPath(t *testing.T) {
	got := NormalizeFamilyPath(TextPath("Resistors/Potentiometer"))
	assert.Equal(t, []string{"Potentiometer", "Resistors"}, got.Labels)
	assert.Empty(t, got.Text)

	got = NormalizeFamilyPath(PathOf("Leaf", "", "Root"))
	assert.Equal(t, []string{"Leaf", "Root"}, got.Labels)

	assert.True(t, NormalizeFamilyPath(TextPath(" / ")).IsZero())
}
