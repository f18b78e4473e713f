package experiment

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/allpaul0/tpg-nextflow/pkg/conf"
)

const (
	metadataKindEmpty   = ""
	metadataKindFlags   = "flags"
	metadataKindEnviron = "environ"
)

// MetadataConfig encodes the settings for connecting to the database.
type MetadataConfig struct {
	CassandraAddress           string
	CassandraUsername          string
	CassandraPassword          string
	CassandraConnectionTimeout time.Duration
	CassandraSslEnabled        bool
	CassandraSslHostValidation bool
	CassandraSslCAPath         string
	CassandraSslCertPath       string
	CassandraSslKeyPath        string
}

// DefaultMetadataConfig returns a setup which uses a Cassandra cluster running
// on localhost without any authentication or encryption.
func DefaultMetadataConfig() MetadataConfig {
	return MetadataConfig{
		CassandraAddress: "127.0.0.1",
	}
}

// MetadataConfigFromFlags applies the Cassandra settings from the command line
// flags and environment variables.
func MetadataConfigFromFlags() MetadataConfig {
	return MetadataConfig{
		CassandraAddress:           conf.CassandraAddress.Value(),
		CassandraUsername:          conf.CassandraUsername.Value(),
		CassandraPassword:          conf.CassandraPassword.Value(),
		CassandraConnectionTimeout: conf.CassandraConnectionTimeout.Value(),
		CassandraSslEnabled:        conf.CassandraSslEnabled.Value(),
		CassandraSslHostValidation: conf.CassandraSslHostValidation.Value(),
		CassandraSslCAPath:         conf.CassandraSslCAPath.Value(),
		CassandraSslCertPath:       conf.CassandraSslCertPath.Value(),
		CassandraSslKeyPath:        conf.CassandraSslKeyPath.Value(),
	}
}

// MetadataMap encodes the key value pairs to be stored in Cassandra.
type MetadataMap map[string]string

// Metadata is a helper struct which keeps the Cassandra session alive, holds
// the active configuration and the sweep id to tag the metadata with.
// The metadata store is observational only: unit outcomes live exclusively in
// the aggregated table and the resume list.
type Metadata struct {
	sweepID string
	config  MetadataConfig
	session *gocql.Session
}

// NewMetadata returns the Metadata helper from a sweep id and configuration.
// Connect() still needs to be called to get an active Cassandra session.
func NewMetadata(sweepID string, config MetadataConfig) *Metadata {
	return &Metadata{
		sweepID: sweepID,
		config:  config,
	}
}

func sslOptions(config MetadataConfig) *gocql.SslOptions {
	sslOptions := &gocql.SslOptions{
		EnableHostVerification: config.CassandraSslHostValidation,
	}

	if config.CassandraSslCAPath != "" {
		sslOptions.CaPath = config.CassandraSslCAPath
	}

	if config.CassandraSslCertPath != "" {
		sslOptions.CertPath = config.CassandraSslCertPath
	}

	if config.CassandraSslKeyPath != "" {
		sslOptions.KeyPath = config.CassandraSslKeyPath
	}

	return sslOptions
}

// Connect creates a session to the Cassandra cluster. This function should only be called once.
func (m *Metadata) Connect() error {
	cluster := gocql.NewCluster(m.config.CassandraAddress)

	cluster.Consistency = gocql.LocalOne
	cluster.SerialConsistency = gocql.LocalSerial

	cluster.ProtoVersion = 4
	cluster.Timeout = m.config.CassandraConnectionTimeout

	if m.config.CassandraUsername != "" && m.config.CassandraPassword != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: m.config.CassandraUsername,
			Password: m.config.CassandraPassword,
		}
	}

	if m.config.CassandraSslEnabled {
		cluster.SslOpts = sslOptions(m.config)
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return err
	}

	m.session = session

	if err := session.Query("CREATE KEYSPACE IF NOT EXISTS sweep WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': 1};").Exec(); err != nil {
		return err
	}

	// Schema consistency check is ignored by CREATE queries, so we perform a
	// simple SELECT on 'system_schema.keyspaces' to ensure the schema settled.
	if err = session.Query("SELECT * FROM system_schema.keyspaces;").Exec(); err != nil {
		return err
	}

	if err = session.Query("CREATE TABLE IF NOT EXISTS sweep.metadata (sweep_id text, kind text, time timestamp, timeuuid TIMEUUID, metadata map<text,text>, PRIMARY KEY ((sweep_id), timeuuid),) WITH CLUSTERING ORDER BY (timeuuid DESC);").Exec(); err != nil {
		return err
	}

	if err = session.Query("SELECT * FROM system_schema.keyspaces;").Exec(); err != nil {
		return err
	}

	return nil
}

func (m *Metadata) storeMap(metadata MetadataMap, kind string) error {
	return m.session.Query(`INSERT INTO sweep.metadata (sweep_id, kind, time, timeuuid, metadata) VALUES (?, ?, ?, ?, ?)`, m.sweepID, kind, time.Now(), gocql.TimeUUID(), metadata).Exec()
}

// Record stores a key and value and associates with the sweep id.
func (m *Metadata) Record(key string, value string) error {
	metadata := MetadataMap{}
	metadata[key] = value
	return m.storeMap(metadata, metadataKindEmpty)
}

// RecordMap stores a key and value map and associates with the sweep id.
func (m *Metadata) RecordMap(metadata MetadataMap) error {
	return m.storeMap(metadata, metadataKindEmpty)
}

// RecordFlags saves whole flags based configuration in the metadata information.
func (m *Metadata) RecordFlags() error {
	metadata := conf.GetFlags()
	return m.storeMap(metadata, metadataKindFlags)
}

// RecordEnv adds all OS environment variables that start with prefix 'prefix'
// in the metadata information.
func (m *Metadata) RecordEnv(prefix string) error {
	metadata := MetadataMap{}
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, prefix) {
			fields := strings.SplitN(env, "=", 2)
			metadata[fields[0]] = fields[1]
		}
	}
	return m.storeMap(metadata, metadataKindEnviron)
}

// Get retrieves all metadata maps from the database.
func (m *Metadata) Get() ([]MetadataMap, error) {
	var metadata MetadataMap

	out := []MetadataMap{}

	iter := m.session.Query(`SELECT metadata FROM sweep.metadata WHERE sweep_id = ?`, m.sweepID).Iter()
	for iter.Scan(&metadata) {
		out = append(out, metadata)
	}
	if err := iter.Close(); err != nil {
		return []MetadataMap{}, err
	}

	return out, nil
}

// GetGroup retrieves a single kind from the database.
// Returns error if no kind or too many groups found.
func (m *Metadata) GetGroup(kind string) (MetadataMap, error) {
	var metadata MetadataMap

	maps := []MetadataMap{}

	iter := m.session.Query(`SELECT metadata FROM sweep.metadata WHERE sweep_id = ? AND kind = ? ALLOW FILTERING`, m.sweepID, kind).Iter()
	for iter.Scan(&metadata) {
		maps = append(maps, metadata)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	// Make sure that only one map within the sweep exists.
	if len(maps) != 1 {
		return nil, fmt.Errorf("cannot retrieve metadata for sweep ID %q and %q kind", m.sweepID, kind)
	}
	return maps[0], nil
}

// Clear deletes all metadata entries associated with the current sweep id.
func (m *Metadata) Clear() error {
	return m.session.Query(`DELETE FROM sweep.metadata WHERE sweep_id = ?`, m.sweepID).Exec()
}
