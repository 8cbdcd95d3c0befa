package soapxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listResponse = `<?xml version="1.0" encoding="UTF-8"?>
<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <S:Body>
    <ns2:ListResponse xmlns:ns2="http://www.infor.com/businessinterface/Customer_v1">
      <ControlArea><processingScope>request</processingScope></ControlArea>
      <DataArea>
        <Customer>
          <id>C001</id>
          <name>Acme</name>
          <Address><city>Monterrey</city></Address>
          <blocked xsi:nil="true"/>
        </Customer>
        <Customer>
          <id>C002</id>
          <name></name>
        </Customer>
      </DataArea>
    </ns2:ListResponse>
  </S:Body>
</S:Envelope>`

func TestStripVersion(t *testing.T) {
	assert.Equal(t, "Customer", StripVersion("Customer_v1"))
	assert.Equal(t, "SalesOrder", StripVersion("SalesOrder_v12"))
	assert.Equal(t, "Customer", StripVersion("Customer"))
	assert.Equal(t, "Item_vendor", StripVersion("Item_vendor"))
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse("not xml at all")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestDataRoot_PrefersDataArea(t *testing.T) {
	doc, err := Parse(listResponse)
	require.NoError(t, err)

	assert.Equal(t, "Body", Body(doc).Tag)
	assert.Equal(t, "DataArea", DataRoot(doc).Tag)
}

func TestBlocks_VersionFallback(t *testing.T) {
	doc, err := Parse(listResponse)
	require.NoError(t, err)

	blocks := Blocks(DataRoot(doc), "Customer_v1")
	require.Len(t, blocks, 2)

	assert.Empty(t, Blocks(DataRoot(doc), "Item_v1"))
	assert.Empty(t, Blocks(DataRoot(doc), ""))
}

func TestLeaves(t *testing.T) {
	doc, err := Parse(listResponse)
	require.NoError(t, err)
	blocks := Blocks(DataRoot(doc), "Customer")
	require.Len(t, blocks, 2)

	leaves := Leaves(blocks[0])
	require.Len(t, leaves, 4)
	assert.Equal(t, Leaf{Name: "id", Text: "C001"}, leaves[0])
	assert.Equal(t, Leaf{Name: "city", Text: "Monterrey"}, leaves[2])
	assert.True(t, leaves[3].Nil)
	assert.True(t, leaves[3].Empty())

	second := Leaves(blocks[1])
	require.Len(t, second, 2)
	assert.True(t, second[1].Empty())
	assert.False(t, second[1].Nil)
}

func TestFindFault(t *testing.T) {
	t.Run("soap 1.1", func(t *testing.T) {
		doc, err := Parse(`<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/"><S:Body>` +
			`<S:Fault><faultcode>S:Server</faultcode><faultstring>Invalid tenant</faultstring></S:Fault>` +
			`</S:Body></S:Envelope>`)
		require.NoError(t, err)

		f := FindFault(doc)
		require.NotNil(t, f)
		assert.Equal(t, "Invalid tenant", f.String)
		assert.Equal(t, "S:Server", f.Code)
	})

	t.Run("soap 1.2", func(t *testing.T) {
		doc, err := Parse(`<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope"><env:Body>` +
			`<env:Fault><env:Code><env:Value>env:Sender</env:Value></env:Code>` +
			`<env:Reason><env:Text xml:lang="en">Unknown company</env:Text></env:Reason></env:Fault>` +
			`</env:Body></env:Envelope>`)
		require.NoError(t, err)

		f := FindFault(doc)
		require.NotNil(t, f)
		assert.Equal(t, "Unknown company", f.String)
		assert.Equal(t, "env:Sender", f.Code)
	})

	t.Run("no fault", func(t *testing.T) {
		doc, err := Parse(listResponse)
		require.NoError(t, err)
		assert.Nil(t, FindFault(doc))
	})
}
