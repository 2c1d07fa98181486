package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"github.com/coldicp/mailtools/internal/config"
	"github.com/coldicp/mailtools/internal/logger"
)

// CertReloader 持有当前证书，支持热更新
type CertReloader struct {
	mu       sync.RWMutex
	certFile string
	keyFile  string
	cert     *tls.Certificate
}

// NewCertReloader 加载证书文件
func NewCertReloader(certFile, keyFile string) (*CertReloader, error) {
	r := &CertReloader{}
	if err := r.ReloadFrom(certFile, keyFile); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload 重新读取当前路径的证书文件，失败时保留旧证书
func (r *CertReloader) Reload() error {
	r.mu.RLock()
	certFile, keyFile := r.certFile, r.keyFile
	r.mu.RUnlock()
	return r.ReloadFrom(certFile, keyFile)
}

// ReloadFrom 从新路径加载证书，成功后替换证书和路径，失败时两者都保持不变
func (r *CertReloader) ReloadFrom(certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("加载证书失败: %w", err)
	}
	if cert.Leaf == nil && len(cert.Certificate) > 0 {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("解析证书失败: %w", err)
		}
		cert.Leaf = leaf
	}

	r.mu.Lock()
	r.certFile = certFile
	r.keyFile = keyFile
	r.cert = &cert
	r.mu.Unlock()

	logger.Info().
		Str("cert_file", certFile).
		Time("not_after", cert.Leaf.NotAfter).
		Msg("加载 TLS 证书")
	return nil
}

// GetCertificate 用于 tls.Config.GetCertificate
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// NotAfter 当前证书的过期时间
func (r *CertReloader) NotAfter() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert.Leaf.NotAfter
}

// LoadTLSConfig 加载 TLS 配置，未启用时返回 nil
func LoadTLSConfig(cfg *config.TLSConfig) (*tls.Config, *CertReloader, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	minVersion, err := parseMinVersion(cfg.MinVersion)
	if err != nil {
		return nil, nil, err
	}

	reloader, err := NewCertReloader(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, nil, err
	}

	if until := time.Until(reloader.NotAfter()); until < 7*24*time.Hour {
		logger.Warn().Dur("remaining", until).Msg("TLS 证书即将过期")
	}

	tlsConfig := &tls.Config{
		MinVersion: minVersion,
		MaxVersion: tls.VersionTLS13,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		},
		GetCertificate: reloader.GetCertificate,
	}

	return tlsConfig, reloader, nil
}

func parseMinVersion(v string) (uint16, error) {
	switch v {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	}
	return 0, fmt.Errorf("不支持的 TLS 版本: %s", v)
}
