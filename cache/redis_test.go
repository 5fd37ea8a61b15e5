package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
)

func sampleDocument() *Document {
	doc := NewDocument()
	doc.set("index.html", "k1", Entry{Hash: "h1", Content: map[string]string{"fr": "Bonjour"}})
	return doc
}

func TestRedisStore_Load_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, err := NewRedisStoreFromClient(db, RedisConfig{TTL: 3600, KeyPrefix: "test:"})
	if err != nil {
		t.Fatalf("NewRedisStoreFromClient failed: %v", err)
	}

	data, _ := sampleDocument().Marshal()
	mock.ExpectGet("test:dictionary").SetVal(string(data))

	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if e, ok := doc.Lookup("index.html", "k1"); !ok || e.Content["fr"] != "Bonjour" {
		t.Errorf("Unexpected record %+v", e)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_Load_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{KeyPrefix: "test:"})

	mock.ExpectGet("test:dictionary").RedisNil()

	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected miss to yield empty document, got %v", err)
	}
	if doc.Len() != 0 {
		t.Errorf("Expected empty document, got %d records", doc.Len())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_Load_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{KeyPrefix: "test:"})

	mock.ExpectGet("test:dictionary").SetErr(errors.New("connection refused"))

	if _, err := store.Load(context.Background()); err == nil {
		t.Error("Expected error to propagate")
	}
}

func TestRedisStore_Save(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{TTL: 3600, KeyPrefix: "test:"})

	data, _ := sampleDocument().Marshal()
	mock.ExpectSet("test:dictionary", string(data), 3600*time.Second).SetVal("OK")

	if err := store.Save(context.Background(), sampleDocument()); err != nil {
		t.Errorf("Save failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_Save_NoTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{KeyPrefix: "test:"})

	data, _ := sampleDocument().Marshal()
	mock.ExpectSet("test:dictionary", string(data), 0).SetVal("OK")

	if err := store.Save(context.Background(), sampleDocument()); err != nil {
		t.Errorf("Save failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_Compressed(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{KeyPrefix: "test:", Compress: true})

	data, _ := sampleDocument().Marshal()
	compressed := store.encode(data)
	if compressed == string(data) {
		t.Fatal("Expected compressed payload to differ from JSON")
	}

	mock.ExpectSet("test:dictionary", compressed, 0).SetVal("OK")
	mock.ExpectGet("test:dictionary").SetVal(compressed)

	ctx := context.Background()
	if err := store.Save(ctx, sampleDocument()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	doc, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if e, _ := doc.Lookup("index.html", "k1"); e.Content["fr"] != "Bonjour" {
		t.Errorf("Unexpected record after decompression %+v", e)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func addFrench(doc *Document) (bool, error) {
	doc.set("index.html", "k1", Entry{Hash: "h1", Content: map[string]string{"fr": "Bonjour"}})
	return true, nil
}

func TestRedisStore_Update(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{KeyPrefix: "test:"})

	data, _ := sampleDocument().Marshal()
	mock.ExpectWatch("test:dictionary")
	mock.ExpectGet("test:dictionary").RedisNil()
	mock.ExpectTxPipeline()
	mock.ExpectSet("test:dictionary", string(data), 0).SetVal("OK")
	mock.ExpectTxPipelineExec()

	if err := store.Update(context.Background(), addFrench); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_Update_Unchanged(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{KeyPrefix: "test:"})

	data, _ := sampleDocument().Marshal()
	mock.ExpectWatch("test:dictionary")
	mock.ExpectGet("test:dictionary").SetVal(string(data))

	err := store.Update(context.Background(), func(doc *Document) (bool, error) {
		if doc.Len() != 1 {
			t.Errorf("Expected the stored document, got %d records", doc.Len())
		}
		return false, nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_Update_RetriesAfterConcurrentWrite(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{KeyPrefix: "test:"})

	mine, _ := sampleDocument().Marshal()

	// Another process writes a German record between our read and EXEC.
	theirs := NewDocument()
	theirs.set("about.html", "k2", Entry{Hash: "h2", Content: map[string]string{"de": "Hallo"}})
	theirData, _ := theirs.Marshal()

	merged := theirs.Clone()
	_, _ = addFrench(merged)
	mergedData, _ := merged.Marshal()

	mock.ExpectWatch("test:dictionary")
	mock.ExpectGet("test:dictionary").RedisNil()
	mock.ExpectTxPipeline()
	mock.ExpectSet("test:dictionary", string(mine), 0).SetVal("OK")
	mock.ExpectTxPipelineExec().SetErr(redis.TxFailedErr)

	mock.ExpectWatch("test:dictionary")
	mock.ExpectGet("test:dictionary").SetVal(string(theirData))
	mock.ExpectTxPipeline()
	mock.ExpectSet("test:dictionary", string(mergedData), 0).SetVal("OK")
	mock.ExpectTxPipelineExec()

	calls := 0
	err := store.Update(context.Background(), func(doc *Document) (bool, error) {
		calls++
		return addFrench(doc)
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected the update to be applied again on the fresh document, got %d calls", calls)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_Update_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{KeyPrefix: "test:"})

	mock.ExpectWatch("test:dictionary")
	mock.ExpectGet("test:dictionary").SetErr(errors.New("connection refused"))

	called := false
	err := store.Update(context.Background(), func(doc *Document) (bool, error) {
		called = true
		return true, nil
	})
	if err == nil {
		t.Error("Expected error to propagate")
	}
	if called {
		t.Error("Expected no update on a failed read")
	}
}

func TestDictionaryCache_RedisWritesInTransaction(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{KeyPrefix: "test:"})
	ctx := context.Background()

	snap := snapshotOf(scopeDef{"index.html", "k1", "Hello"})
	dict := lingo.NewDictionary("fr")
	dict.Set("index.html", "k1", "Bonjour")

	// The same write against an in-memory store gives the expected document.
	reference := NewDictionaryCache(NewMemoryStore())
	if err := reference.WriteLocale(ctx, dict, snap); err != nil {
		t.Fatal(err)
	}
	want, _ := reference.Document(ctx)
	data, _ := want.Marshal()

	mock.ExpectWatch("test:dictionary")
	mock.ExpectGet("test:dictionary").RedisNil()
	mock.ExpectTxPipeline()
	mock.ExpectSet("test:dictionary", string(data), 0).SetVal("OK")
	mock.ExpectTxPipelineExec()

	if err := NewDictionaryCache(store).WriteLocale(ctx, dict, snap); err != nil {
		t.Fatalf("WriteLocale failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisStore_DefaultKeyPrefix(t *testing.T) {
	db, _ := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{})
	if store.Key() != "lingo:dictionary" {
		t.Errorf("Expected default key 'lingo:dictionary', got %q", store.Key())
	}
}

func TestRedisStore_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	store, _ := NewRedisStoreFromClient(db, RedisConfig{})

	mock.ExpectPing().SetVal("PONG")

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
