package secret

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3API is the subset of the S3 client used by S3Provider.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Provider stores parameters as AES-GCM sealed JSON objects in an S3 bucket.
type S3Provider struct {
	client     s3API
	bucketName string
	encryptKey []byte // 32-byte key for AES-256
}

type parameterData struct {
	Value string `json:"value"`
}

// NewS3Provider creates a new S3Provider instance
func NewS3Provider(client s3API, bucketName string, encryptKey []byte) (*S3Provider, error) {
	if len(encryptKey) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(encryptKey))
	}
	return &S3Provider{
		client:     client,
		bucketName: bucketName,
		encryptKey: encryptKey,
	}, nil
}

// Get retrieves and decrypts the named parameter
func (p *S3Provider) Get(ctx context.Context, name string) (string, error) {
	key := p.getKey(name)

	result, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return "", fmt.Errorf("s3 parameter %s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get parameter %s from S3: %w", name, err)
	}
	defer result.Body.Close()

	var data parameterData
	if err := json.NewDecoder(result.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("failed to decode parameter %s: %w", name, err)
	}

	value, err := p.decrypt(data.Value)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt parameter %s: %w", name, err)
	}
	return value, nil
}

// Put encrypts and stores the named parameter
func (p *S3Provider) Put(ctx context.Context, name, value string) error {
	sealed, err := p.encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt parameter %s: %w", name, err)
	}

	jsonData, err := json.Marshal(parameterData{Value: sealed})
	if err != nil {
		return fmt.Errorf("failed to marshal parameter %s: %w", name, err)
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucketName),
		Key:         aws.String(p.getKey(name)),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to store parameter %s in S3: %w", name, err)
	}
	return nil
}

// encrypt seals the value with AES-GCM, prefixing the random nonce
func (p *S3Provider) encrypt(plaintext string) (string, error) {
	aesGCM, err := p.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt opens a value produced by encrypt
func (p *S3Provider) decrypt(encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	aesGCM, err := p.gcm()
	if err != nil {
		return "", err
	}

	if len(ciphertext) < aesGCM.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce := ciphertext[:aesGCM.NonceSize()]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext[aesGCM.NonceSize():], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (p *S3Provider) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(p.encryptKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// getKey maps /dify/app/neko to parameters/dify/app/neko.json
func (p *S3Provider) getKey(name string) string {
	return fmt.Sprintf("parameters/%s.json", strings.TrimPrefix(name, "/"))
}
