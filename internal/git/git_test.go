package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiff(t *testing.T) {
	diff := `diff --git a/src/Clock.cs b/src/Clock.cs
index 1111111..2222222 100644
--- a/src/Clock.cs
+++ b/src/Clock.cs
@@ -3 +3,2 @@ namespace App
-    public long Now;
+    public long Now;
+    public long Then;
@@ -20,2 +21,0 @@
-    x
-    y
diff --git a/Pump.cs b/Pump.cs
--- a/Pump.cs
+++ b/Pump.cs
@@ -7,0 +8 @@
+    [Worker]
`
	changes, err := parseDiff([]byte(diff))
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "src/Clock.cs", changes[0].Path)
	assert.Equal(t, []int{3, 4, 21}, changes[0].ChangedLines)
	assert.Equal(t, "Pump.cs", changes[1].Path)
	assert.Equal(t, []int{8}, changes[1].ChangedLines)
}

func TestParseDiff_Empty(t *testing.T) {
	changes, err := parseDiff(nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
