package resourcetest

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	consul "github.com/hashicorp/consul/api"

	"github.com/gorilla/mux"
)

const fakeConsulLeader = "127.0.0.1:8300"

// FakeConsul serves the status and KV endpoints of the Consul HTTP API from memory.
type FakeConsul struct {
	kv    map[string][]byte
	index uint64
	lock  sync.Mutex
}

func NewFakeConsul() *FakeConsul {
	return &FakeConsul{kv: make(map[string][]byte)}
}

func (f *FakeConsul) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(f.queryMeta)
	router.HandleFunc("/v1/status/leader", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, fakeConsulLeader)
	}).Methods("GET")
	kv := router.PathPrefix("/v1/kv/").Subrouter()
	kv.Methods("GET").HandlerFunc(f.getKV)
	kv.Methods("PUT").HandlerFunc(f.putKV)
	kv.Methods("DELETE").HandlerFunc(f.deleteKV)
	return router
}

// Keys returns every key currently stored, sorted.
func (f *FakeConsul) Keys() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	keys := make([]string, 0, len(f.kv))
	for k := range f.kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// queryMeta sets the headers the Consul client parses on every response.
func (f *FakeConsul) queryMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lock.Lock()
		index := f.index
		f.lock.Unlock()
		w.Header().Set("X-Consul-Index", strconv.FormatUint(index, 10))
		w.Header().Set("X-Consul-LastContact", "0")
		w.Header().Set("X-Consul-KnownLeader", "true")
		next.ServeHTTP(w, r)
	})
}

func kvKey(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/v1/kv/")
}

func (f *FakeConsul) getKV(w http.ResponseWriter, r *http.Request) {
	key := kvKey(r)
	_, recurse := r.URL.Query()["recurse"]
	f.lock.Lock()
	var pairs []*consul.KVPair
	for k, v := range f.kv {
		if k == key || (recurse && strings.HasPrefix(k, key)) {
			pairs = append(pairs, &consul.KVPair{Key: k, Value: v, ModifyIndex: f.index})
		}
	}
	f.lock.Unlock()
	if len(pairs) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	writeJSON(w, pairs)
}

func (f *FakeConsul) putKV(w http.ResponseWriter, r *http.Request) {
	value, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.lock.Lock()
	f.kv[kvKey(r)] = value
	f.index++
	f.lock.Unlock()
	writeJSON(w, true)
}

func (f *FakeConsul) deleteKV(w http.ResponseWriter, r *http.Request) {
	key := kvKey(r)
	_, recurse := r.URL.Query()["recurse"]
	f.lock.Lock()
	for k := range f.kv {
		if k == key || (recurse && strings.HasPrefix(k, key)) {
			delete(f.kv, k)
		}
	}
	f.index++
	f.lock.Unlock()
	writeJSON(w, true)
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
