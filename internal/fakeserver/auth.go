// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package fakeserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bktutor/bktutor/lib/netutil"
	"github.com/bktutor/bktutor/tutorapi"
)

const issuer = "bktutor-fakeserver"

var errInvalidToken = errors.New("fakeserver: invalid token")

// issueToken signs an HS256 token for username and records its ID as
// live.
func (s *Server) issueToken(username string) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    issuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[username]; ok {
		account.liveTokens[claims.ID] = struct{}{}
	}
	return token, nil
}

// authenticate resolves a bearer token to its account's user.
func (s *Server) authenticate(token string) (tutorapi.User, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return tutorapi.User{}, errors.Join(errInvalidToken, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[claims.Subject]
	if !ok || !account.user.IsActive {
		return tutorapi.User{}, errInvalidToken
	}
	if _, live := account.liveTokens[claims.ID]; !live {
		return tutorapi.User{}, errInvalidToken
	}
	return account.user, nil
}

func bearerToken(request *http.Request) (token string, present bool) {
	header := request.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

func rejectCredentials(writer http.ResponseWriter) {
	writer.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(writer, http.StatusUnauthorized, "Could not validate credentials")
}

// requireUser admits only requests with a valid bearer token.
func (s *Server) requireUser(next func(http.ResponseWriter, *http.Request, tutorapi.User)) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		token, present := bearerToken(request)
		if !present {
			writer.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(writer, http.StatusUnauthorized, "Not authenticated")
			return
		}
		user, err := s.authenticate(token)
		if err != nil {
			rejectCredentials(writer)
			return
		}
		next(writer, request, user)
	})
}

// optionalUser admits anonymous requests, but a request that does carry
// a token must carry a valid one.
func (s *Server) optionalUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		token, present := bearerToken(request)
		if !present {
			next(writer, request)
			return
		}
		if _, err := s.authenticate(token); err != nil {
			rejectCredentials(writer)
			return
		}
		next(writer, request)
	})
}

func (s *Server) handleLogin(writer http.ResponseWriter, request *http.Request) {
	var body tutorapi.LoginRequest
	if err := netutil.DecodeRequest(request.Body, &body); err != nil {
		writeDetail(writer, http.StatusUnprocessableEntity, []map[string]any{
			{"loc": []string{"body"}, "msg": "invalid JSON body", "type": "value_error"},
		})
		return
	}
	if body.Username == "" || body.Password == "" {
		writeDetail(writer, http.StatusUnprocessableEntity, []map[string]any{
			{"loc": []string{"body", "username"}, "msg": "field required", "type": "value_error.missing"},
		})
		return
	}

	s.mu.Lock()
	account, ok := s.accounts[body.Username]
	var hash []byte
	var active bool
	if ok {
		hash = account.passwordHash
		active = account.user.IsActive
	}
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(body.Password)) != nil {
		writeDetail(writer, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	if !active {
		writeDetail(writer, http.StatusBadRequest, "Inactive user")
		return
	}

	token, err := s.issueToken(body.Username)
	if err != nil {
		writeDetail(writer, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(writer, http.StatusOK, tutorapi.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(writer http.ResponseWriter, _ *http.Request, user tutorapi.User) {
	writeJSON(writer, http.StatusOK, user)
}
