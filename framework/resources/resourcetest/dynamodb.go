package resourcetest

import (
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

const (
	dynamoDBTargetPrefix = "DynamoDB_20120810."
	dynamoDBContentType  = "application/x-amz-json-1.0"
	dynamoDBErrorPrefix  = "com.amazonaws.dynamodb.v20120810#"
)

// FakeDynamoDB implements the CreateTable, DescribeTable and DeleteTable operations of the
// DynamoDB JSON protocol. New tables are ACTIVE immediately.
type FakeDynamoDB struct {
	tables map[string]struct{}
	lock   sync.Mutex
}

func NewFakeDynamoDB() *FakeDynamoDB {
	return &FakeDynamoDB{tables: make(map[string]struct{})}
}

func (f *FakeDynamoDB) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", f.serve).Methods("POST")
	return router
}

// Tables returns the names of the existing tables, sorted.
func (f *FakeDynamoDB) Tables() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *FakeDynamoDB) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeDynamoDBError(w, "SerializationException", err.Error())
		return
	}
	table, err := parseTableName(body)
	if err != nil {
		writeDynamoDBError(w, "SerializationException", err.Error())
		return
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	_, exists := f.tables[table]
	switch strings.TrimPrefix(r.Header.Get("X-Amz-Target"), dynamoDBTargetPrefix) {
	case "CreateTable":
		if exists {
			writeDynamoDBError(w, "ResourceInUseException", "Table already exists: "+table)
			return
		}
		f.tables[table] = struct{}{}
		writeTable(w, "TableDescription", table, "ACTIVE")
	case "DescribeTable":
		if !exists {
			writeDynamoDBError(w, "ResourceNotFoundException", "Requested resource not found: Table: "+table)
			return
		}
		writeTable(w, "Table", table, "ACTIVE")
	case "DeleteTable":
		if !exists {
			writeDynamoDBError(w, "ResourceNotFoundException", "Requested resource not found: Table: "+table)
			return
		}
		delete(f.tables, table)
		writeTable(w, "TableDescription", table, "DELETING")
	default:
		writeDynamoDBError(w, "UnknownOperationException", "unsupported operation")
	}
}

func parseTableName(body []byte) (string, error) {
	var name string
	reader := jreader.NewReader(body)
	for obj := reader.Object(); obj.Next(); {
		if string(obj.Name()) == "TableName" {
			name = reader.String()
		} else {
			_ = reader.SkipValue()
		}
	}
	return name, reader.Error()
}

func writeTable(w http.ResponseWriter, property, table, status string) {
	writer := jwriter.NewWriter()
	obj := writer.Object()
	desc := obj.Name(property).Object()
	desc.Name("TableName").String(table)
	desc.Name("TableStatus").String(status)
	desc.End()
	obj.End()
	w.Header().Set("Content-Type", dynamoDBContentType)
	_, _ = w.Write(writer.Bytes())
}

func writeDynamoDBError(w http.ResponseWriter, code, message string) {
	writer := jwriter.NewWriter()
	obj := writer.Object()
	obj.Name("__type").String(dynamoDBErrorPrefix + code)
	obj.Name("message").String(message)
	obj.End()
	w.Header().Set("Content-Type", dynamoDBContentType)
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write(writer.Bytes())
}
