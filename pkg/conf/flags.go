package conf

import "time"

// Cassandra connection flags shared by every binary that records sweep metadata.
var (
	// CassandraAddress represents cassandra address flag.
	CassandraAddress = NewStringFlag("cassandra_addr", "Address of Cassandra DB endpoint for sweep metadata", "127.0.0.1")
	// CassandraUsername holds the user name which will be presented when connecting to the cluster.
	CassandraUsername = NewStringFlag("cassandra_username", "The user name which will be presented when connecting to the cluster", "")
	// CassandraPassword holds the password which will be presented when connecting to the cluster.
	CassandraPassword = NewStringFlag("cassandra_password", "The password which will be presented when connecting to the cluster", "")
	// CassandraConnectionTimeout encodes the internal connection timeout for the publisher.
	CassandraConnectionTimeout = NewDurationFlag("cassandra_timeout", "Timeout for communication with Cassandra cluster", 0*time.Second)
	// CassandraSslEnabled determines whether the connection shall use SSL.
	CassandraSslEnabled = NewBoolFlag("cassandra_ssl", "Determines whether the connection to Cassandra shall use SSL", false)
	// CassandraSslHostValidation determines whether the server will be verified.
	CassandraSslHostValidation = NewBoolFlag("cassandra_ssl_host_validation", "Determines whether the SSL verification shall verify the Cassandra server identity", false)
	// CassandraSslCAPath holds the path to the CA certificate.
	CassandraSslCAPath = NewStringFlag("cassandra_ssl_ca_path", "Path to the CA certificate used by the Cassandra server", "")
	// CassandraSslCertPath holds the path to the client certificate.
	CassandraSslCertPath = NewStringFlag("cassandra_ssl_cert_path", "Path to the client certificate used to connect to Cassandra", "")
	// CassandraSslKeyPath holds the path to the client key.
	CassandraSslKeyPath = NewStringFlag("cassandra_ssl_key_path", "Path to the client key used to connect to Cassandra", "")
)
