package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-emissions/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func testUser() models.User {
	return models.User{
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleAdmin,
		FirstName:    "Test",
		LastName:     "User",
	}
}

func TestMongoUserCollection_InsertUser(t *testing.T) {
	collection := testDatabase(t).Collection(UsersCollection)
	userCollection := &MongoUserCollection{Collection: collection}

	user := testUser()
	err := userCollection.InsertUser(context.Background(), user)
	assert.NoError(t, err)

	// Verify user was inserted
	var foundUser models.User
	err = collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&foundUser)
	assert.NoError(t, err)
	assert.Equal(t, user.Username, foundUser.Username)
	assert.Equal(t, user.Email, foundUser.Email)
	assert.Equal(t, user.Role, foundUser.Role)
	assert.True(t, foundUser.IsActive)
	assert.NotZero(t, foundUser.CreatedAt)
	assert.NotZero(t, foundUser.UpdatedAt)
}

func TestMongoUserCollection_Find(t *testing.T) {
	collection := testDatabase(t).Collection(UsersCollection)
	userCollection := &MongoUserCollection{Collection: collection}
	require.NoError(t, userCollection.InsertUser(context.Background(), testUser()))

	var insertedUser models.User
	err := collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&insertedUser)
	require.NoError(t, err)

	foundUser, err := userCollection.FindUserByID(context.Background(), insertedUser.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, "testuser", foundUser.Username)

	foundUser, err = userCollection.FindUserByEmail(context.Background(), "test@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "testuser", foundUser.Username)

	_, err = userCollection.FindUserByUsername(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)

	// Test with invalid ID
	_, err = userCollection.FindUserByID(context.Background(), "invalid-id")
	assert.Error(t, err)

	users, err := userCollection.FindUsers(context.Background())
	assert.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMongoUserCollection_UpdateAndDelete(t *testing.T) {
	collection := testDatabase(t).Collection(UsersCollection)
	userCollection := &MongoUserCollection{Collection: collection}
	require.NoError(t, userCollection.InsertUser(context.Background(), testUser()))

	var insertedUser models.User
	err := collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&insertedUser)
	require.NoError(t, err)
	id := insertedUser.ID.Hex()

	updatedUser := insertedUser
	updatedUser.FirstName = "Updated"
	require.NoError(t, userCollection.UpdateUser(context.Background(), id, updatedUser))
	require.NoError(t, userCollection.UpdateLastLogin(context.Background(), id))

	foundUser, err := userCollection.FindUserByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, "Updated", foundUser.FirstName)
	assert.NotNil(t, foundUser.LastLogin)

	require.NoError(t, userCollection.DeleteUser(context.Background(), id))
	_, err = userCollection.FindUserByID(context.Background(), id)
	assert.Error(t, err)
}
