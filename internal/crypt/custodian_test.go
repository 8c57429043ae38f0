package crypt

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

func TestCustodian_EmptyByDefault(t *testing.T) {
	c := NewCustodian()

	if _, ok := c.Current(); ok {
		t.Error("Expected a new custodian to hold no key")
	}
	if _, err := c.MustCurrent(); !errors.Is(err, kerrors.ErrNoKeyLoaded) {
		t.Errorf("Expected ErrNoKeyLoaded, got: %v", err)
	}
}

func TestCustodian_LoadAndCurrent(t *testing.T) {
	c := NewCustodian()
	key := generateTestKey(t)

	pemBytes, err := MarshalPrivateKey(key)
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}
	if err := c.Load(pemBytes); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	held, ok := c.Current()
	if !ok {
		t.Fatal("Expected a key to be held after Load")
	}
	if held.N.Cmp(key.N) != 0 {
		t.Error("Held key does not match loaded key")
	}
}

func TestCustodian_LoadRejectsMalformed(t *testing.T) {
	c := NewCustodian()

	if err := c.Load([]byte("not a key")); !errors.Is(err, kerrors.ErrKeyImport) {
		t.Errorf("Expected ErrKeyImport, got: %v", err)
	}
	if _, ok := c.Current(); ok {
		t.Error("Expected custodian to stay empty after failed load")
	}
}

func TestCustodian_LoadOverwrites(t *testing.T) {
	c := NewCustodian()
	first := generateTestKey(t)
	second := generateTestKey(t)

	c.LoadKey(first)
	c.LoadKey(second)

	held, ok := c.Current()
	if !ok {
		t.Fatal("Expected a key to be held")
	}
	if held.N.Cmp(second.N) != 0 {
		t.Error("Expected the second key to replace the first")
	}
}

func TestCustodian_ClearIsIdempotent(t *testing.T) {
	c := NewCustodian()
	c.LoadKey(generateTestKey(t))

	c.Clear()
	if _, ok := c.Current(); ok {
		t.Error("Expected no key after Clear")
	}

	// Clearing an empty custodian must not panic or error.
	c.Clear()
	if _, ok := c.Current(); ok {
		t.Error("Expected no key after second Clear")
	}
}

func TestCustodian_ConcurrentLoadClear(t *testing.T) {
	c := NewCustodian()
	key := generateTestKey(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.LoadKey(key)
		}()
		go func() {
			defer wg.Done()
			c.Clear()
		}()
	}
	// Readers must never observe a half-updated key: Current either
	// returns the loaded key or nothing.
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if held, ok := c.Current(); ok && held != key {
				t.Error("Current observed an unexpected key")
			}
		}()
	}
	wg.Wait()
}

func TestCustodian_ImportExportRoundTrip(t *testing.T) {
	c := NewCustodian()
	key := generateTestKey(t)

	file, err := ExportToFile(key, "alice@example.com")
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}
	if !bytes.HasPrefix(file, []byte("# fieldseal private key: alice@example.com\n")) {
		t.Error("Expected label comment at the top of the export file")
	}

	imported, err := c.ImportFromFile(file)
	if err != nil {
		t.Fatalf("Failed to import exported file: %v", err)
	}
	if imported.N.Cmp(key.N) != 0 {
		t.Error("Imported key does not match exported key")
	}

	held, ok := c.Current()
	if !ok || held.N.Cmp(key.N) != 0 {
		t.Error("Expected the imported key to be held by the custodian")
	}
}

func TestCustodian_ImportMalformed(t *testing.T) {
	c := NewCustodian()

	if _, err := c.ImportFromFile([]byte("definitely not PEM")); !errors.Is(err, kerrors.ErrKeyImport) {
		t.Errorf("Expected ErrKeyImport, got: %v", err)
	}
}
