package resources

import (
	"context"
	"time"

	"github.com/launchdarkly/tap-test-harness/framework"
	"github.com/launchdarkly/tap-test-harness/framework/tapzero"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// Schema of the DynamoDB table
	tablePartitionKey = "namespace"
	tableSortKey      = "key"

	defaultDynamoDBRegion = "us-east-1"
	tableWaitDelay        = time.Second
)

type DynamoDBOptions struct {
	// Endpoint overrides the AWS endpoint, for instance to use DynamoDB Local.
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	// Table is the name of the table to create. Defaults to a unique name.
	Table           string           `yaml:"table"`
	AccessKeyID     string           `yaml:"accessKeyID"`
	SecretAccessKey string           `yaml:"secretAccessKey"`
	Logger          framework.Logger `yaml:"-"`
}

// DynamoDB creates a table with a namespace/key schema when bootstrapped and deletes it
// when closed.
type DynamoDB struct {
	options DynamoDBOptions
	client  *dynamodb.DynamoDB
	logger  framework.Logger
}

func NewDynamoDB(options DynamoDBOptions, _ *tapzero.T) *DynamoDB {
	if options.Region == "" {
		options.Region = defaultDynamoDBRegion
	}
	if options.Table == "" {
		options.Table = "tapzero-" + uuid.NewString()
	}
	if options.Endpoint != "" && options.AccessKeyID == "" {
		// local emulators accept any credentials but still require some
		options.AccessKeyID, options.SecretAccessKey = "fake", "fake"
	}
	logger := options.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &DynamoDB{options: options, logger: logger}
}

func (d *DynamoDB) Bootstrap(ctx context.Context) error {
	config := aws.NewConfig().WithRegion(d.options.Region).WithMaxRetries(0)
	if d.options.Endpoint != "" {
		config = config.WithEndpoint(d.options.Endpoint)
	}
	if d.options.AccessKeyID != "" {
		config = config.WithCredentials(
			credentials.NewStaticCredentials(d.options.AccessKeyID, d.options.SecretAccessKey, ""))
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return errors.Wrap(err, "creating AWS session")
	}
	client := dynamodb.New(sess)

	_, err = client.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(tablePartitionKey),
				AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
			},
			{
				AttributeName: aws.String(tableSortKey),
				AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(tablePartitionKey),
				KeyType:       aws.String(dynamodb.KeyTypeHash),
			},
			{
				AttributeName: aws.String(tableSortKey),
				KeyType:       aws.String(dynamodb.KeyTypeRange),
			},
		},
		ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		},
		TableName: aws.String(d.options.Table),
	})
	if err != nil {
		return errors.Wrapf(err, "creating DynamoDB table %s", d.options.Table)
	}
	// from here on Close has a table to delete
	d.client = client

	err = client.WaitUntilTableExistsWithContext(ctx,
		&dynamodb.DescribeTableInput{TableName: aws.String(d.options.Table)},
		request.WithWaiterDelay(request.ConstantWaiterDelay(tableWaitDelay)),
	)
	if err != nil {
		return errors.Wrapf(err, "waiting for DynamoDB table %s", d.options.Table)
	}
	d.logger.Printf("Created DynamoDB table %s", d.options.Table)
	return nil
}

// Client returns the DynamoDB client. It is only valid between Bootstrap and Close.
func (d *DynamoDB) Client() *dynamodb.DynamoDB { return d.client }

// Table returns the name of the table owned by the resource.
func (d *DynamoDB) Table() string { return d.options.Table }

func (d *DynamoDB) Close(ctx context.Context) error {
	if d.client == nil {
		return nil
	}
	_, err := d.client.DeleteTableWithContext(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(d.options.Table)})
	if err != nil {
		return errors.Wrapf(err, "deleting DynamoDB table %s", d.options.Table)
	}
	d.logger.Printf("Deleted DynamoDB table %s", d.options.Table)
	return nil
}
