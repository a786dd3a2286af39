package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/acme/autocert"
)

// withServerHeader stamps "Server: radiography-shield/<version>" and answers
// HEAD / with 200 as a liveness probe.
func withServerHeader(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "radiography-shield/"+CompileVersion)

		if r.Method == http.MethodHead && r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// hostPolicy admits the bare domain and www.<domain>. IP hosts pass but never
// get a certificate of their own; they are served the fallback below.
func hostPolicy(domain string) autocert.HostPolicy {
	return func(_ context.Context, host string) error {
		if host == domain || host == "www."+domain {
			return nil
		}
		if net.ParseIP(host) != nil {
			return nil
		}
		return errors.New("acme/autocert: host not configured")
	}
}

// serveWithDomain runs ACME HTTP-01 plus a redirect on :80 and HTTPS with
// Let's Encrypt certificates on :443. Errors are logged only.
func serveWithDomain(domain string, handler http.Handler) {
	certMgr := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache("certs"),
		HostPolicy: hostPolicy(domain),
	}

	go func() {
		mux80 := http.NewServeMux()
		mux80.Handle("/.well-known/acme-challenge/", certMgr.HTTPHandler(nil))
		mux80.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "https://"+domain+r.URL.RequestURI(), http.StatusMovedPermanently)
		})

		log.Printf("HTTP  server (ACME+redirect) ➜ :80")
		if err := (&http.Server{
			Addr:              ":80",
			Handler:           mux80,
			ReadHeaderTimeout: 10 * time.Second,
		}).ListenAndServe(); err != nil {
			log.Printf("HTTP  server error: %v", err)
		}
	}()

	// Fallback certificate for IP hosts and odd SNI values, refreshed daily.
	var fallback atomic.Pointer[tls.Certificate]
	go func() {
		for {
			c, err := certMgr.GetCertificate(&tls.ClientHelloInfo{ServerName: domain})
			wait := time.Minute
			if err == nil {
				fallback.Store(c)
				wait = 24 * time.Hour
			} else {
				log.Printf("autocert renewal check: %v", err)
			}
			time.Sleep(wait)
		}
	}()

	tlsCfg := certMgr.TLSConfig()
	tlsCfg.MinVersion = tls.VersionTLS12
	tlsCfg.GetCertificate = func(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
		c, err := certMgr.GetCertificate(chi)
		if err == nil {
			return c, nil
		}
		if fb := fallback.Load(); fb != nil {
			return fb, nil
		}
		return nil, err
	}

	log.Printf("HTTPS server for %s ➜ :443", domain)
	if err := (&http.Server{
		Addr:              ":443",
		Handler:           handler,
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}).ListenAndServeTLS("", ""); err != nil {
		log.Printf("HTTPS server error: %v", err)
	}
}
