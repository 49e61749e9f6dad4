package extractor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_ExtractFromFile(t *testing.T) {
	testFile := filepath.Join("testdata", "Sample.cs")

	ext, err := NewExtractor("csharp")
	require.NoError(t, err)

	units, err := ext.ExtractFromFile(testFile)
	require.NoError(t, err)

	unitsByName := make(map[string]*CodeUnit)
	for _, unit := range units {
		unitsByName[unit.Name] = unit
	}

	t.Run("Overall Count", func(t *testing.T) {
		assert.Equal(t, 5, len(units), "IMailer, MailerBase, SmtpMailer, Clock, Scheduler")
	})

	t.Run("Namespace", func(t *testing.T) {
		for _, unit := range units {
			assert.Equal(t, "Sample.Services", unit.Package)
			assert.Equal(t, "csharp", unit.Language)
		}
	})

	t.Run("Interface", func(t *testing.T) {
		unit, ok := unitsByName["IMailer"]
		require.True(t, ok)
		assert.Equal(t, "interface", unit.UnitType)
		assert.Equal(t, "Sends outbound mail.", unit.Description)

		details := unit.Details.(CSharpTypeDetails)
		require.Len(t, details.Methods, 1)
		m := details.Methods[0]
		assert.Equal(t, "Send", m.Name)
		assert.Equal(t, "int", m.Returns)
		assert.True(t, HasModifier(m.Modifiers, "public"))
		require.Len(t, m.Parameters, 2)
		assert.Equal(t, CSharpParam{Name: "recipient", Type: "int"}, m.Parameters[0])
		assert.Equal(t, CSharpParam{Name: "weight", Type: "double"}, m.Parameters[1])
		assert.Contains(t, details.Usings, "System.Collections.Generic")
	})

	t.Run("Abstract base", func(t *testing.T) {
		unit, ok := unitsByName["MailerBase"]
		require.True(t, ok)
		details := unit.Details.(CSharpTypeDetails)
		assert.True(t, HasModifier(details.Modifiers, "abstract"))
		assert.Equal(t, []string{"IMailer"}, details.Bases)
	})

	t.Run("Constructors and attributes", func(t *testing.T) {
		unit, ok := unitsByName["SmtpMailer"]
		require.True(t, ok)
		details := unit.Details.(CSharpTypeDetails)
		require.Len(t, details.Constructors, 2)
		assert.Empty(t, details.Constructors[0].Parameters)
		require.Len(t, details.Constructors[1].Parameters, 2)
		assert.Equal(t, "IEnumerable<IFilter>", details.Constructors[1].Parameters[1].Type)

		require.Len(t, details.Attributes, 1)
		assert.Equal(t, "ReplacesInterface", details.Attributes[0].Name)
		require.Len(t, details.Attributes[0].Args, 1)
		assert.Equal(t, "typeof(IMailer)", details.Attributes[0].Args[0])
	})

	t.Run("Methods and properties", func(t *testing.T) {
		unit, ok := unitsByName["Clock"]
		require.True(t, ok)
		details := unit.Details.(CSharpTypeDetails)
		require.Len(t, details.Properties, 1)
		assert.Equal(t, "Now", details.Properties[0].Name)
		assert.Equal(t, "long", details.Properties[0].Type)

		require.Len(t, details.Methods, 1)
		assert.Equal(t, "void", details.Methods[0].Returns)
		require.Len(t, details.Methods[0].Attributes, 1)
		assert.Equal(t, "NativeCallback", details.Methods[0].Attributes[0].Name)
	})

	t.Run("Private constructor", func(t *testing.T) {
		unit, ok := unitsByName["Scheduler"]
		require.True(t, ok)
		details := unit.Details.(CSharpTypeDetails)
		require.Len(t, details.Constructors, 1)
		assert.Equal(t, []string{"private"}, details.Constructors[0].Modifiers)
	})
}

func TestExtractor_FileScopedNamespace(t *testing.T) {
	ext, err := NewExtractor("cs")
	require.NoError(t, err)

	src := []byte("namespace App.Core;\n\npublic class Engine { }\n")
	units, err := ext.ExtractFromSource(context.Background(), "Engine.cs", src)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "App.Core", units[0].Package)
	assert.Equal(t, "Engine", units[0].Name)
	assert.Equal(t, 3, units[0].StartLine)
}

func TestNewExtractor_Unsupported(t *testing.T) {
	_, err := NewExtractor("go")
	assert.Error(t, err)
}

func TestUsingTarget(t *testing.T) {
	assert.Equal(t, "System.Text", usingTarget("using System.Text;"))
	assert.Equal(t, "System", usingTarget("global using System;"))
	assert.Equal(t, "", usingTarget("using static System.Math;"))
	assert.Equal(t, "", usingTarget("using IO = System.IO;"))
}
