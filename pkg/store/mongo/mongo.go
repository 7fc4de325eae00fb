/* Apache v2 license
*  Copyright (C) <2019> Intel Corporation
*
*  SPDX-License-Identifier: Apache-2.0
 */

// Package mongo implements the store gateway on top of mongodb via mgo.
package mongo

import (
	"strings"
	"time"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/medifleet/delivery-service/pkg/store"
)

// DB wraps a master mgo session. Controllers receive a copy per operation so
// they never share a socket; Close on the copy returns it to the pool.
type DB struct {
	session *mgo.Session
	name    string
}

// NewSession dials the database and returns the master session. The timeout
// applies both to the dial and, as the socket timeout, to every later store
// call so a wedged server surfaces store.ErrTimeout instead of hanging.
func NewSession(url string, timeout time.Duration) (*DB, error) {
	dialInfo, err := mgo.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "mgo.ParseURL()")
	}
	dialInfo.Timeout = timeout

	session, err := mgo.DialWithInfo(dialInfo)
	if err != nil {
		return nil, errors.Wrap(err, "mgo.DialWithInfo()")
	}
	session.SetSocketTimeout(timeout)
	session.SetSafe(&mgo.Safe{})

	return &DB{session: session, name: dialInfo.Database}, nil
}

// CopySession returns a DB bound to a copy of the master session.
func (db *DB) CopySession() *DB {
	return &DB{session: db.session.Copy(), name: db.name}
}

// Close closes the underlying session.
func (db *DB) Close() {
	db.session.Close()
}

// Session implements store.Master: a copied session per request, closed on
// release.
func (db *DB) Session() (store.Gateway, func()) {
	copied := db.CopySession()
	return copied, copied.Close
}

// EnsureIndexes creates the given indexes, recreating any that fail to apply.
func (db *DB) EnsureIndexes(indexes map[string][]store.Index) error {
	for collectionName, collectionIndexes := range indexes {
		collection := db.collection(collectionName)

		for _, index := range collectionIndexes {
			mgoIndex := mgo.Index{
				Key:        []string{index.Field},
				Unique:     index.Unique,
				DropDups:   false,
				Background: false,
			}

			if err := collection.EnsureIndex(mgoIndex); err != nil {
				log.Errorf("Unable to add index %s to collection %s: %s", index.Field, collectionName, err.Error())

				if err := collection.DropIndex(index.Field); err != nil {
					log.Errorf("Unable to drop index %s from collection %s: %s", index.Field, collectionName, err.Error())
				}

				if err := collection.EnsureIndex(mgoIndex); err != nil {
					return errors.Wrapf(err, "unable to add index %s to collection %s", index.Field, collectionName)
				}
			}
		}
	}
	return nil
}

func (db *DB) collection(name string) *mgo.Collection {
	return db.session.DB(db.name).C(name)
}

// FindOne implements store.Gateway.
func (db *DB) FindOne(collection string, selector bson.M, result interface{}) error {
	if err := db.collection(collection).Find(selector).One(result); err != nil {
		return translate(err, "db."+collection+".findOne()")
	}
	return nil
}

// FindAll implements store.Gateway.
func (db *DB) FindAll(collection string, selector bson.M, result interface{}) error {
	if err := db.collection(collection).Find(selector).All(result); err != nil {
		return translate(err, "db."+collection+".find()")
	}
	return nil
}

// Insert implements store.Gateway.
func (db *DB) Insert(collection string, document interface{}) error {
	if err := db.collection(collection).Insert(document); err != nil {
		return translate(err, "db."+collection+".insert()")
	}
	return nil
}

// Update implements store.Gateway.
func (db *DB) Update(collection string, selector bson.M, update bson.M) error {
	if err := db.collection(collection).Update(selector, update); err != nil {
		return translate(err, "db."+collection+".update()")
	}
	return nil
}

// UpdateAll implements store.Gateway.
func (db *DB) UpdateAll(collection string, selector bson.M, update bson.M) (int, error) {
	changeInfo, err := db.collection(collection).UpdateAll(selector, update)
	if err != nil {
		return 0, translate(err, "db."+collection+".updateAll()")
	}
	return changeInfo.Matched, nil
}

// Remove implements store.Gateway.
func (db *DB) Remove(collection string, selector bson.M) error {
	if err := db.collection(collection).Remove(selector); err != nil {
		return translate(err, "db."+collection+".remove()")
	}
	return nil
}

// Count implements store.Gateway.
func (db *DB) Count(collection string, selector bson.M) (int, error) {
	count, err := db.collection(collection).Find(selector).Count()
	if err != nil {
		return 0, translate(err, "db."+collection+".count()")
	}
	return count, nil
}

// translate maps mgo errors onto the store error vocabulary and wraps the
// rest with the failing operation.
func translate(err error, operation string) error {
	switch {
	case err == mgo.ErrNotFound:
		return store.ErrNotFound
	case mgo.IsDup(err):
		return store.ErrDuplicate
	case isTimeout(err):
		return errors.Wrap(store.ErrTimeout, operation)
	}
	return errors.Wrap(err, operation)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	// mgo reports socket deadline expiry as a plain errors.New; string
	// matching is the only handle it gives us.
	msg := err.Error()
	return strings.Contains(msg, "i/o timeout") || strings.Contains(msg, "no reachable servers")
}
